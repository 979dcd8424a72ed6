// Package model defines the data structures used throughout the application.
// Plain structs with JSON tags; behaviour lives in the service layer.
package model

import "time"

// Default values applied when a create request leaves a field out.
const (
	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)

// Snippet represents a stored code snippet together with its rendered HTML.
//
// Highlighted is a DERIVED field: the service layer recomputes it from Code,
// Language, Style, Title and LineNumbers before every write that changes one
// of them. Nothing outside the service should ever assign it.
type Snippet struct {
	ID          int64     `json:"id"`
	Created     time.Time `json:"created"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	LineNumbers bool      `json:"show_line_numbers"`
	Language    string    `json:"language"`
	Style       string    `json:"style"`
	OwnerID     int64     `json:"owner"`
	Highlighted string    `json:"highlighted"`
}
