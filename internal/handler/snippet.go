// Package handler contains the HTTP request handlers of the snippet API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, body, headers)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic; they are the glue between HTTP and the
// services.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/service"
)

// SnippetHandler exposes the snippet store over HTTP.
//
// It only translates: JSON in, service call, JSON out. Validation, the derived
// highlighted field and persistence all live in service.SnippetService.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// HandleList returns all snippets, oldest first.
//
// HTTP: GET /snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate stores a new snippet.
//
// HTTP: POST /snippets
// REQUEST BODY: {"code": "print(1)", "owner": 1, "language": "python", ...}
//
// If "owner" is omitted and the request carries a valid bearer token, the
// token's user becomes the owner.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSnippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	input := service.SnippetInput{
		Title:       req.Title,
		Code:        req.Code,
		LineNumbers: req.LineNumbers,
		Language:    req.Language,
		Style:       req.Style,
	}
	if req.Owner != nil {
		input.OwnerID = *req.Owner
	} else if caller, ok := auth.CallerFromContext(r.Context()); ok {
		input.OwnerID = caller
	}

	snippet, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGet returns one snippet.
//
// HTTP: GET /snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /snippets/{id} (PATCH is routed here too)
//
// Fields left out of the body keep their values. "owner" is ignored.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateSnippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.Int64("id", id), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	snippet, err := h.service.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent) // 204 No Content: deleted, no body
}

// HandleHighlight serves the stored HTML rendering of a snippet as a page.
//
// HTTP: GET /snippets/{id}/highlight
func (h *SnippetHandler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(snippet.Highlighted)); err != nil {
		h.logger.Error("failed to write highlighted snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}
}
