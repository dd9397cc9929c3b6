package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON binds and validates the request body, writing the error
// response itself. Returns false when the handler should stop.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{
				"field": fe.Field(),
				"rule":  fe.Tag(),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":      "validation_failed",
				"message":   "Request body failed validation",
				"fields":    fields,
				"requestId": c.GetString("requestID"),
			},
		})
		return false
	}

	respondError(c, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
	return false
}
