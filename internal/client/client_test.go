package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-profiles/internal/config"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

const testAddress = "0x1111111111111111111111111111111111111111"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.ProfileAPIConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, logging.Discard())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetByAddress_Found(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/wallet-profiles/address/"+testAddress, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":               3,
			"address":          testAddress,
			"twitter_handle":   "alice",
			"farcaster_handle": nil,
			"target_portfolio": map[string]int{"stablecoins": 100},
		})
	})

	profile, err := c.GetByAddress(context.Background(), testAddress)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, int64(3), profile.ID)
	social, ok := profile.Social()
	require.True(t, ok)
	assert.Equal(t, types.SocialHandle{Type: types.SocialTwitter, Handle: "alice"}, social)
	assert.Equal(t, 100, profile.TargetPortfolio.Total())
}

func TestGetByAddress_NotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	})

	profile, err := c.GetByAddress(context.Background(), testAddress)
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetByAddress_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
	})

	_, err := c.GetByAddress(context.Background(), testAddress)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)
}

func TestCreate_SendsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/wallet-profiles", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testAddress, body["address"])
		assert.Nil(t, body["twitter_handle"])
		assert.Equal(t, "bob", body["farcaster_handle"])

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id":               11,
			"address":          testAddress,
			"farcaster_handle": "bob",
			"target_portfolio": body["target_portfolio"],
		})
	})

	input := models.NewProfileInput(testAddress,
		types.SocialHandle{Type: types.SocialFarcaster, Handle: " bob "},
		types.RiskProfile{"A": 60, "B": 40})

	profile, err := c.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(11), profile.ID)
	assert.Equal(t, types.RiskProfile{"A": 60, "B": 40}, profile.TargetPortfolio)
}

func TestCreate_FieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"twitter_handle": {"already taken"},
		})
	})

	input := models.NewProfileInput(testAddress, types.SocialHandle{Type: types.SocialTwitter, Handle: "alice"}, types.RiskProfile{"A": 100})
	_, err := c.Create(context.Background(), input)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"already taken"}, apiErr.ErrorFields()[types.FieldTwitterHandle])
	assert.Equal(t, "", apiErr.ErrorText())
}

func TestUpdate_TargetsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/wallet-profiles/42", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 42, "address": testAddress})
	})

	input := models.NewProfileInput(testAddress, types.SocialHandle{Type: types.SocialTwitter, Handle: "alice"}, types.RiskProfile{"A": 100})
	profile, err := c.Update(context.Background(), 42, input)
	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.ID)
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/wallet-profiles/42", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Delete(context.Background(), 42))
}

func TestDelete_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	})

	err := c.Delete(context.Background(), 42)
	assert.True(t, IsNotFound(err))
}

func TestCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/risk-categories", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"categories": []types.RiskCategory{{Key: "A", Label: "Alpha", Default: 100}},
		})
	})

	categories, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.RiskCategory{{Key: "A", Label: "Alpha", Default: 100}}, categories)
}

func TestDecodeAPIError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields types.FieldErrors
		wantMsg    string
		wantText   string
	}{
		{
			name:       "field arrays",
			body:       `{"address":["invalid"],"farcaster_handle":["already taken","too long"]}`,
			wantFields: types.FieldErrors{"address": {"invalid"}, "farcaster_handle": {"already taken", "too long"}},
		},
		{
			name:       "string error",
			body:       `{"error":"rate limit exceeded"}`,
			wantFields: types.FieldErrors{},
			wantMsg:    "rate limit exceeded",
		},
		{
			name:       "object error",
			body:       `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`,
			wantFields: types.FieldErrors{},
			wantMsg:    "boom",
		},
		{
			name:       "plain text",
			body:       "upstream timeout\n",
			wantFields: types.FieldErrors{},
			wantText:   "upstream timeout",
		},
		{
			name:       "empty body",
			body:       "",
			wantFields: types.FieldErrors{},
			wantText:   "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := decodeAPIError(http.StatusBadGateway, []byte(tt.body))
			assert.Equal(t, tt.wantFields, apiErr.Fields)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantMsg, apiErr.ErrorText())
			if tt.wantText != "" {
				assert.Contains(t, apiErr.Error(), tt.wantText)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(config.ProfileAPIConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logging.Discard())
	_, err := c.GetByAddress(context.Background(), testAddress)
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}
