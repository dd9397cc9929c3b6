package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/auth"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorEnvelope{Error: errorBody{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("requestID"),
	}})
}

func respondInternal(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
}

// respondUnauthorized maps a policy/auth denial onto the wire. Both
// denial codes ride 401 on purpose: POST_NOT_FOUND keeps missing and
// forbidden posts indistinguishable to the caller.
func respondUnauthorized(c *gin.Context, err error) bool {
	uerr, ok := auth.AsUnauthorized(err)
	if !ok {
		return false
	}

	respondError(c, http.StatusUnauthorized, uerr.Code, uerr.Error())
	return true
}
