package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"userdesk/m/internal/service"
)

const msgInternal = "Internal server error."

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	in, err := h.readUserInput(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	in, err := h.readUserInput(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": service.MsgDeleted})
}

func (h *Handler) growthStats(w http.ResponseWriter, r *http.Request) {
	points, err := h.users.Growth(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// readUserInput accepts multipart/form-data (with an optional "avatar"
// file), url-encoded forms, and JSON bodies without a file.
func (h *Handler) readUserInput(r *http.Request) (service.UserInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req userRequest
		if err := decodeJSON(r, &req); err != nil {
			return service.UserInput{}, err
		}
		return service.UserInput{Name: req.Name, Email: req.Email}, nil
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return service.UserInput{}, err
	}

	in := service.UserInput{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
	}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
			in.Avatar = files[0]
		}
	}
	return in, nil
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id.")
		return 0, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict *service.ConflictError
		failure  *service.FailureError
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, service.MsgNotFound)
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &failure):
		respondError(w, http.StatusInternalServerError, failure.Message)
	default:
		h.logger.ErrorContext(r.Context(), "unhandled service error", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, msgInternal)
	}
}
