package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/service"
)

// maxBodyBytes caps request bodies. Snippets are source files, not uploads.
const maxBodyBytes = 1 << 20

// createSnippetRequest is the POST /snippets body. Owner is a pointer so the
// handler can tell "omitted" from "0".
type createSnippetRequest struct {
	Title       string `json:"title"`
	Code        string `json:"code"`
	LineNumbers bool   `json:"show_line_numbers"`
	Language    string `json:"language"`
	Style       string `json:"style"`
	Owner       *int64 `json:"owner"`
}

// updateSnippetRequest is the PUT/PATCH /snippets/{id} body. Every field is
// optional. An "owner" key is accepted and ignored because the struct has no
// field for it.
type updateSnippetRequest struct {
	Title       *string `json:"title"`
	Code        *string `json:"code"`
	LineNumbers *bool   `json:"show_line_numbers"`
	Language    *string `json:"language"`
	Style       *string `json:"style"`
}

func (req updateSnippetRequest) patch() service.SnippetPatch {
	return service.SnippetPatch{
		Title:       req.Title,
		Code:        req.Code,
		LineNumbers: req.LineNumbers,
		Language:    req.Language,
		Style:       req.Style,
	}
}

// userResponse is the public shape of a user.
type userResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Snippets []int64 `json:"snippets"`
}

func newUserResponse(d service.UserDetail) userResponse {
	ids := d.SnippetIDs
	if ids == nil {
		ids = []int64{}
	}
	return userResponse{ID: d.User.ID, Username: d.User.Username, Snippets: ids}
}

// decodeJSON reads the request body into dst.
//
// An empty body decodes as an empty object, so required-field checks further
// down report what is missing. Malformed JSON and values of the wrong JSON
// type come back as validation errors; the latter are keyed by field name.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var (
		typeErr    *json.UnmarshalTypeError
		syntaxErr  *json.SyntaxError
		maxSizeErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperror.ValidationFailed(typeErr.Field, typeMessage(typeErr.Type))
	case errors.As(err, &maxSizeErr):
		return apperror.ValidationFailed("body", fmt.Sprintf("Request body must not exceed %d bytes.", maxSizeErr.Limit))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.ValidationFailed("body", "JSON parse error: "+err.Error())
	default:
		return apperror.ValidationFailed("body", "Invalid data. Expected a JSON object.")
	}
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	default:
		return "Incorrect type."
	}
}

// pathID parses the {id} URL parameter. Anything that is not a positive
// integer cannot name a record, so it is reported as not found.
func pathID(r *http.Request, resource string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}
