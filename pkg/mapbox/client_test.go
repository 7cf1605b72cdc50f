package mapbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toladimeji/crimewatch/internal/resilience"
)

func TestForward_Matched(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"features": [{
				"place_name": "Ikeja, Lagos, Nigeria",
				"relevance": 0.95,
				"geometry": {"coordinates": [3.3515, 6.6018]}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))

	result, err := c.Forward(context.Background(), "robbery near Ikeja")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	// Mapbox returns [lon, lat]; the result must be lat/lon.
	assert.InDelta(t, 6.6018, result.Latitude, 1e-9)
	assert.InDelta(t, 3.3515, result.Longitude, 1e-9)
	assert.Equal(t, "Ikeja, Lagos, Nigeria", result.PlaceName)

	assert.Contains(t, gotQuery, "limit=1")
	assert.Contains(t, gotQuery, "access_token=test-token")
	assert.Contains(t, gotQuery, "poi")
}

func TestForward_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"features": []}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))

	result, err := c.Forward(context.Background(), "gibberish with no place")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestForward_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))

	_, err := c.Forward(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestForward_SingleRequestByDefault(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "try again", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))

	_, err := c.Forward(context.Background(), "anything")
	require.Error(t, err)
	// A transient upstream failure is not retried unless opted in.
	assert.Equal(t, 1, calls)
}

func TestForward_RetryOptIn(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"features": [{
				"place_name": "Ikeja",
				"relevance": 0.9,
				"geometry": {"coordinates": [3.3515, 6.6018]}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}))

	result, err := c.Forward(context.Background(), "Ikeja")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 2, calls)
}

func TestForward_NoToken(t *testing.T) {
	c := NewClient("")

	assert.False(t, c.Available())
	_, err := c.Forward(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestAvailable_WithToken(t *testing.T) {
	c := NewClient("test-token")
	assert.True(t, c.Available())
}
