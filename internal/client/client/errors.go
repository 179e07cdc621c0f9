package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/glowup/internal/client/models"
	"github.com/dmitrijs2005/glowup/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("access token has expired")
	ErrNotFound     = errors.New("not found")
	ErrNoSession    = errors.New("not logged in")
)

// APIError is a non-2xx reply of the auth API.
type APIError struct {
	Status  int
	Message string
	Code    string // stable failure kind, empty for validation replies
	Fields  []models.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.Status, strings.Join(msgs, "; "))
}

// Unwrap lets callers match the reply class with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized && e.Code == common.CodeAccessTokenExpired:
		return ErrTokenExpired
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}
