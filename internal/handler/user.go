package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets/internal/service"
)

// UserHandler serves the read-only user endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// HandleList returns every user with the IDs of their snippets.
//
// HTTP: GET /users
//
//	[{"id": 1, "username": "alice", "snippets": [1, 4]}, ...]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	users := make([]userResponse, 0, len(details))
	for _, d := range details {
		users = append(users, newUserResponse(d))
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(*detail))
}
