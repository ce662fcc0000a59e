package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/putto11262002/websession/core"
	"github.com/putto11262002/websession/pkg/router"
)

const maxBodyBytes = 1 << 20

type AuthHandler struct {
	sessions *core.SessionService
}

func NewAuthHandler(sessions *core.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type UserResponse struct {
	User core.PublicUser `json:"user"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var payload core.LoginInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return router.NewJsonError(http.StatusRequestEntityTooLarge, "Request body too large")
		}
		return core.NewValidationError("Invalid request body")
	}
	defer r.Body.Close()

	session, err := h.sessions.Login(r.Context(), payload)
	if err != nil {
		return err
	}

	w.Header().Add("Set-Cookie", session.SetCookie)
	return router.WriteJson(w, http.StatusOK, UserResponse{User: *session.User})
}

// MeHandler must be mounted behind core.SessionMiddleware.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) error {
	session := core.SessionFromRequest(r)
	return router.WriteJson(w, http.StatusOK, UserResponse{User: *session.User})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) error {
	session := h.sessions.Logout(r.Context())
	w.Header().Add("Set-Cookie", session.SetCookie)
	return router.WriteJson(w, http.StatusOK, LogoutResponse{Success: true})
}
