package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/netx"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityRequest struct {
	IdentityToken string `json:"identityToken"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type pullResponse struct {
	Entries    []models.Entry `json:"entries"`
	ServerTime int64          `json:"serverTime"`
}

type pushRequest struct {
	Entries []models.Entry `json:"entries"`
}

type pushResponse struct {
	Applied int `json:"applied"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	_ = netx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := netx.ReadJSON(w, r, maxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", res.User.ID)
	s.writeAuth(w, http.StatusCreated, res)
}

func (s *HTTPServer) loginEmail(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := netx.ReadJSON(w, r, maxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeAuth(w, http.StatusOK, res)
}

func (s *HTTPServer) loginIdentity(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if provider != models.ProviderApple && provider != models.ProviderGoogle {
		s.writeError(w, r, http.StatusNotFound, "unknown provider")
		return
	}

	var req identityRequest
	if err := netx.ReadJSON(w, r, maxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.LoginWithIdentity(r.Context(), provider, req.IdentityToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeAuth(w, http.StatusOK, res)
}

func (s *HTTPServer) pull(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "since must be an integer")
			return
		}
		since = v
	}

	list, serverTime, err := s.entries.Pull(r.Context(), userID(r.Context()), since)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = netx.WriteJSON(w, http.StatusOK, pullResponse{Entries: list, ServerTime: serverTime})
}

func (s *HTTPServer) push(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := netx.ReadJSON(w, r, maxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	n, err := s.entries.Push(r.Context(), userID(r.Context()), req.Entries)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = netx.WriteJSON(w, http.StatusOK, pushResponse{Applied: n})
}

func (s *HTTPServer) writeAuth(w http.ResponseWriter, status int, res *services.AuthResult) {
	_ = netx.WriteJSON(w, status, authResponse{
		AccessToken: res.AccessToken,
		User:        userResponse{ID: res.User.ID, Email: res.User.Email},
	})
}

// fail maps service errors to statuses. Unexpected errors are logged and
// reported without detail.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, netx.ErrBadRequest), errors.Is(err, common.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		s.writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		s.writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrAlreadyExists):
		s.writeError(w, r, http.StatusConflict, "account already exists")
	case errors.Is(err, services.ErrProviderDisabled):
		s.writeError(w, r, http.StatusNotFound, "identity provider not configured")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if err := netx.WriteJSON(w, status, errorResponse{Error: msg}); err != nil {
		s.logger.Debug(r.Context(), "write error response", "error", err)
	}
}
