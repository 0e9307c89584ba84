package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/platform/auth/tokens"
)

// Tiny dev-only token minter.
//
// It signs the same HS256 session tokens /auth/login issues, using AUTH_SECRET, so local
// clients can call the API as any user id without registering first.

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	port := getenv("PORT", "5556")
	issuer := getenv("AUTH_ISSUER", "roteiro")
	ttl := getenvDuration("AUTH_TOKEN_TTL", 30*time.Minute)

	m, err := tokens.NewManager(tokens.Config{
		Secret: []byte(os.Getenv("AUTH_SECRET")),
		Issuer: issuer,
		TTL:    ttl,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token config")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Mint a token:
	//   GET /token?sub=<userId>
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}

		token, exp, err := m.Issue(sub)
		if err != nil {
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
			"sub":   sub,
			"iss":   issuer,
			"exp":   exp.Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("iss", issuer).Dur("ttl", ttl).Msg("devjwt listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
