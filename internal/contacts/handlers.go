package contacts

import (
	"encoding/json"
	"net/http"

	"github.com/contactbook/contactbook/internal/auth"
	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/models"
)

type ListResponse struct {
	Contact []*models.Contact `json:"contact"`
}

type ContactResponse struct {
	Contact *models.Contact `json:"contact"`
}

type UpdateResponse struct {
	Message       string            `json:"message"`
	UpdatedFields map[string]string `json:"updatedFields"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func callerOf(r *http.Request) (*auth.CallerIdentity, error) {
	caller := auth.CallerFromContext(r.Context())
	if caller == nil {
		return nil, apperrors.Forbidden("Token not provided or invalid", "Access Forbidden")
	}
	return caller, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("Invalid request body.", "Request body must be valid JSON.")
	}
	return nil
}

// List handles GET /contacts
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}

	list, err := h.service.List(r.Context(), caller)
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusOK, ListResponse{Contact: list})
	return nil
}

// Get handles GET /contact/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}

	c, err := h.service.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusOK, ContactResponse{Contact: c})
	return nil
}

// Create handles POST /contact
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}

	var in CreateInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	c, err := h.service.Create(r.Context(), caller, in)
	if err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusCreated, ContactResponse{Contact: c})
	return nil
}

// Update handles PATCH /contact/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}

	var patch models.ContactPatch
	if err := decodeJSON(r, &patch); err != nil {
		return err
	}

	res, err := h.service.Update(r.Context(), caller, r.PathValue("id"), patch)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	if !res.Changed {
		apperrors.WriteSuccess(w, requestID, http.StatusNotModified, UpdateResponse{
			Message:       "No changes detected.",
			UpdatedFields: res.UpdatedFields,
		})
		return nil
	}

	apperrors.WriteSuccess(w, requestID, http.StatusOK, UpdateResponse{
		Message:       "Contact updated successfully.",
		UpdatedFields: res.UpdatedFields,
	})
	return nil
}

// Delete handles DELETE /contact/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		return err
	}

	apperrors.WriteSuccess(w, apperrors.GetRequestID(r.Context()), http.StatusOK, MessageResponse{
		Message: "Contact deleted successfully.",
	})
	return nil
}
