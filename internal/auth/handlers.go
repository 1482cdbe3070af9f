package auth

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/models"
	"github.com/contactbook/contactbook/internal/validation"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	User *models.User `json:"user"`
}

type Handlers struct {
	authService *Service
}

func NewHandlers(authService *Service) *Handlers {
	return &Handlers{authService: authService}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("Invalid request body.", "Request body must be valid JSON.")
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validation.Validate(dst)
}

// Register handles POST /auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Email = NormalizeEmail(req.Email)
	if err := validation.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusCreated, UserResponse{User: user})
	return nil
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusOK, resp)
	return nil
}

// Me handles GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) error {
	caller := CallerFromContext(r.Context())
	if caller == nil {
		return apperrors.Forbidden("Token not provided or invalid", "Access Forbidden")
	}

	user, err := h.authService.Me(r.Context(), caller)
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusOK, UserResponse{User: user})
	return nil
}
