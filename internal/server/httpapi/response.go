// Package httpapi exposes the session manager over HTTP with gin. Every
// response uses the {success, message, data|errors} envelope.
package httpapi

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// respondFail writes a failure envelope. code is the stable kind of the
// failure and may be empty.
func respondFail(c *gin.Context, status int, message, code string, errs any) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Code: code, Errors: errs})
}
