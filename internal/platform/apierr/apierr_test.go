package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", NotFound("path_not_found", "learning path"), http.StatusNotFound, "path_not_found"},
		{"wrapped api error", fmt.Errorf("confirm: %w", Conflict("not_draft", "path is %s", "active")), http.StatusConflict, "not_draft"},
		{"sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{"upstream sentinel", fmt.Errorf("router: %w", ErrUpstream), http.StatusBadGateway, "upstream_failed"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := StatusOf(tc.err, http.StatusInternalServerError)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestBadRequestWrapsSentinel(t *testing.T) {
	err := BadRequest("invalid_topic", "topic is %s", "empty")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "topic is empty")
}

func TestUpstreamWrapsCause(t *testing.T) {
	cause := errors.New("provider exploded")
	err := Upstream("generation_failed", cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Status)
}
