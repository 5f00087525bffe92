package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: Validation("bad"), want: http.StatusBadRequest},
		{name: "not found wrapped", err: fmt.Errorf("load: %w", NotFound("missing")), want: http.StatusNotFound},
		{name: "conflict", err: Conflict("dup"), want: http.StatusConflict},
		{name: "forbidden", err: Forbidden("no"), want: http.StatusForbidden},
		{name: "upstream", err: New(ErrUpstream, "gateway down"), want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Server error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "Fee not found", Message(NotFound("Fee not found")))
}
