package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Fail writes the error body for err. Server errors are logged and answered
// with a generic message.
func Fail(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

// BadRequest answers 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// ParamID parses a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// FlexID decodes an id sent either as a JSON number or a numeric string.
type FlexID uint

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}
