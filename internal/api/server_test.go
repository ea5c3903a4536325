package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessrooms/internal/api"
	"github.com/mcoot/chessrooms/internal/testutil"
)

func TestServerConfigWithEngineTimeout(t *testing.T) {
	base := api.DefaultServerConfig()

	assert.Equal(t, base.WriteTimeout, base.WithEngineTimeout(10*time.Second).WriteTimeout)
	assert.Equal(t, 135*time.Second, base.WithEngineTimeout(2*time.Minute).WriteTimeout)
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	server := api.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), cfg, testutil.NopLogger())

	hooked := make(chan struct{})
	server.OnShutdown(func() { close(hooked) })

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + server.Addr())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-errCh)

	select {
	case <-hooked:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
}
