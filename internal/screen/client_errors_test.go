package screen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-profiles/internal/client"
	"github.com/wallet-profiles/internal/config"
	"github.com/wallet-profiles/internal/logging"
)

// TestSubmit_UnstructuredAPIErrorShowsDefault saves through the real client
// against an API that answers with bodies carrying no field or error keys
func TestSubmit_UnstructuredAPIErrorShowsDefault(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"html gateway page", "text/html", "<html><body>502 Bad Gateway</body></html>"},
		{"empty body", "", ""},
		{"plain text", "text/plain", "upstream timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte(`{"error":"profile not found"}`))
					return
				}
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			api := client.New(config.ProfileAPIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, logging.Discard())
			s := New(api, nil, testCategories, logging.Discard())
			ctx := context.Background()

			require.NoError(t, s.Connect(ctx, addrAlice))
			s.SetHandle("bob")

			err := s.Submit(ctx)
			require.Error(t, err)

			v := s.View()
			assert.Equal(t, DefaultSubmitError, v.SubmitError)
			assert.Equal(t, "bob", v.Handle)
			assert.False(t, v.HasProfile)
		})
	}
}
