package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	logger := &testLogger{}
	c, err := NewClient("https://logk.example.org",
		WithHTTPClient(custom),
		WithTimeout(10*time.Second),
		WithLogger(logger),
		WithRetryMax(5),
		WithUserAgent("notebook/1.0"))
	require.NoError(t, err)

	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, "notebook/1.0", c.userAgent)
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	c, err := NewClient("http://localhost",
		WithHTTPClient(nil),
		WithTimeout(0),
		WithLogger(nil),
		WithRetryMax(-1),
		WithUserAgent(""))
	require.NoError(t, err)

	assert.NotNil(t, c.httpClient)
	assert.Equal(t, 5*time.Minute, c.httpClient.Timeout)
	assert.Equal(t, noopLogger{}, c.logger)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, Version)
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name             string
		min, max         time.Duration
		wantMin, wantMax time.Duration
	}{
		{"valid", time.Second, 10 * time.Second, time.Second, 10 * time.Second},
		{"equal", time.Second, time.Second, time.Second, time.Second},
		{"max below min", 2 * time.Second, time.Second, 2 * time.Second, 5 * time.Second},
		{"zero min", 0, time.Second, 500 * time.Millisecond, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient("http://localhost", WithRetryWait(tt.min, tt.max))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, c.retryWaitMin)
			assert.Equal(t, tt.wantMax, c.retryWaitMax)
		})
	}
}
