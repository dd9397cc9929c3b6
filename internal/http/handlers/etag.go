package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondJSONWithETag writes the payload with a strong ETag and honors
// If-None-Match so list polling stays cheap.
func respondJSONWithETag(c *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		respondInternal(c)
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	c.Header("ETag", etag)

	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(status, "application/json; charset=utf-8", body)
}
