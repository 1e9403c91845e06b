package cmdutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer(t *testing.T) {
	srv := httptest.NewServer(MetricsServer(zerolog.Nop()))
	defer srv.Close()

	for _, tc := range []struct {
		path     string
		contains string
	}{
		{path: "/healthz", contains: "OK"},
		{path: "/metrics", contains: "go_goroutines"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			b, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Contains(t, string(b), tc.contains)
		})
	}
}
