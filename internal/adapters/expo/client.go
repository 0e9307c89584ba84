package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/pusher"
)

// Client posts push batches to the Expo push service.
type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
	log         zerolog.Logger
}

func NewClient(baseURL, accessToken string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        httpClient,
		log:         log.With().Str("component", "expo").Logger(),
	}
}

type pushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type pushTicket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type pushResponse struct {
	Data   []pushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send fails when the request as a whole is rejected. Per-device ticket errors
// (e.g. DeviceNotRegistered) are logged and do not fail the batch.
func (c *Client) Send(ctx context.Context, msgs []pusher.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > pusher.MaxChunkSize {
		return fmt.Errorf("expo: batch of %d exceeds %d", len(msgs), pusher.MaxChunkSize)
	}

	payload := make([]pushMessage, 0, len(msgs))
	for _, m := range msgs {
		payload = append(payload, pushMessage{To: m.To, Title: m.Title, Body: m.Body, Data: m.Data, Sound: "default"})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("expo: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/--/api/v2/push/send", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("expo: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("expo: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("expo: status=%d body=%s", resp.StatusCode, truncate(body, 256))
	}

	var pr pushResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return fmt.Errorf("expo: decode response: %w", err)
	}
	if len(pr.Errors) > 0 {
		return fmt.Errorf("expo: %s: %s", pr.Errors[0].Code, pr.Errors[0].Message)
	}
	for i, tk := range pr.Data {
		if tk.Status == "ok" {
			continue
		}
		to := ""
		if i < len(msgs) {
			to = msgs[i].To
		}
		c.log.Warn().Str("to", to).Str("status", tk.Status).Str("detail", tk.Message).Interface("details", tk.Details).Msg("push ticket rejected")
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
