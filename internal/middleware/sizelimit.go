package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/httputil"
)

// DefaultMaxBodySize bounds send requests, which carry a small context map.
const DefaultMaxBodySize int64 = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// BodyLimit rejects declared oversize bodies up front and caps the reader for
// chunked ones.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithError(c,
				&apperrors.AppError{
					Code:    apperrors.ErrBadRequest,
					Message: fmt.Sprintf("request body exceeds %d bytes", maxBytes),
					Err:     errBodyTooLarge,
				},
				c.GetString(ContextRequestID))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
