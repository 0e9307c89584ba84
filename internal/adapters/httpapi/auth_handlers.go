package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/roteiro-app/travel-planner-api/internal/app/users"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

type userDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	CPF         string    `json:"cpf"`
	Email       string    `json:"email"`
	PushToken   *string   `json:"pushToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userDTO   `json:"user"`
}

type profilePatchRequest struct {
	Name        nullable.Nullable[string] `json:"name,omitempty"`
	PhoneNumber nullable.Nullable[string] `json:"phoneNumber,omitempty"`
	CPF         nullable.Nullable[string] `json:"cpf,omitempty"`
	Email       nullable.Nullable[string] `json:"email,omitempty"`
	Password    nullable.Nullable[string] `json:"password,omitempty"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	u, err := s.Users.Register(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.Users.Login(r.Context(), users.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      toUserDTO(sess.User),
	})
}

// UpdateProfile handles PUT /auth/{id}. Only the caller's own profile can be changed.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req profilePatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := users.UpdateProfileInput{
		Name:        usersOptional(req.Name),
		PhoneNumber: usersOptional(req.PhoneNumber),
		CPF:         usersOptional(req.CPF),
		Email:       usersOptional(req.Email),
		Password:    usersOptional(req.Password),
	}
	u, err := s.Users.UpdateProfile(r.Context(), me, domain.UserID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (s *Server) SavePushToken(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req pushTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.Users.SavePushToken(r.Context(), me, req.Token); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "push token saved"})
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:          string(u.ID),
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		CPF:         u.CPF,
		Email:       u.Email,
		PushToken:   u.PushToken,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func usersOptional[T any](n nullable.Nullable[T]) users.Optional[T] {
	if !n.IsSpecified() {
		return users.Unspecified[T]()
	}
	if n.IsNull() {
		return users.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return users.Unspecified[T]()
	}
	return users.Some(v)
}
