package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSURL(t *testing.T) {
	tests := []struct {
		name   string
		server string
		resume string
		want   string
	}{
		{"http", "http://localhost:3000", "", "ws://localhost:3000/ws"},
		{"https with trailing slash", "https://chess.example.com/", "", "wss://chess.example.com/ws"},
		{"resume hint", "http://localhost:3000", "abc-123", "ws://localhost:3000/ws?previousSocketId=abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wsURL(tt.server, tt.resume)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientParsesErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"SESSION_NOT_FOUND","message":"Session Not Found"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	err = c.Post("/register", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, "Session Not Found (SESSION_NOT_FOUND)", err.Error())
}

func TestClientKeepsSessionCookie(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("/establish-connection", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionKey", Value: "tok", Path: "/"})
		_, _ = w.Write([]byte(`{"message":"Session Set"}`))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("sessionKey"); err == nil {
			seen = ck.Value
		}
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", time.Second)
	require.NoError(t, err)
	require.NoError(t, c.Get("/establish-connection", nil))
	require.NoError(t, c.Get("/echo", nil))
	assert.Equal(t, "tok", seen)
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("CHESSCTL_SERVER", "http://chess.internal:8080")
	t.Setenv("CHESSCTL_TIMEOUT", "5s")

	c := DefaultConfig()
	assert.Equal(t, "http://chess.internal:8080", c.ServerURL)
	assert.Equal(t, "text", c.Output)
	assert.Equal(t, 5*time.Second, c.Timeout)

	t.Setenv("CHESSCTL_TIMEOUT", "soon")
	assert.Equal(t, 60*time.Second, DefaultConfig().Timeout)
}
