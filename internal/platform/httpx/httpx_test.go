package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(&StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, IsRetryableError(&StatusError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsRetryableError(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsRetryableError(errors.New("parse failure")))
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	assert.Equal(t, 10*time.Second, RetryAfterDuration(resp, time.Second, 10*time.Second))
	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 10*time.Second))
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		return &StatusError{Provider: "test", StatusCode: http.StatusBadRequest}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		if calls < 2 {
			return &StatusError{Provider: "test", StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
