package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The API speaks a small envelope: every body carries a boolean "status"
// plus whatever fields the route contributes (user, token, errors, ...).
// The request id set by the middleware rides along for correlation.

func write(c *gin.Context, code int, body gin.H) {
	if rid := c.GetString("request_id"); rid != "" {
		body["request_id"] = rid
	}
	c.JSON(code, body)
}

// Success writes a 2xx envelope with status true and the given fields.
func Success(c *gin.Context, code int, fields gin.H) {
	if code == 0 {
		code = http.StatusOK
	}
	body := gin.H{"status": true}
	for k, v := range fields {
		body[k] = v
	}
	write(c, code, body)
}

// Fail writes a failure envelope with a human-readable message.
func Fail(c *gin.Context, code int, message string) {
	write(c, code, gin.H{"status": false, "message": message})
}

// FailValidation writes the full ordered violation list under "errors".
func FailValidation(c *gin.Context, violations interface{}) {
	write(c, http.StatusBadRequest, gin.H{"status": false, "errors": violations})
}

// FailStore reports an infrastructure failure under "error", mirroring the
// 502 shape the API has always used for store outages.
func FailStore(c *gin.Context, err string) {
	write(c, http.StatusBadGateway, gin.H{"status": false, "error": err})
}
