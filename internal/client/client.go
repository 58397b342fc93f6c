// Package client talks to the wallet profile API over HTTP/JSON.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wallet-profiles/internal/config"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

const profilesPath = "/api/wallet-profiles"

// Client is a profile API client. Failed calls are not retried: every call
// backs a user action that reports its own failure.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// New creates a client for the API described by cfg
func New(cfg config.ProfileAPIConfig, logger *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.WithField("component", "profile_api_client"),
	}
}

// GetByAddress returns the profile stored for address, or nil when there is none
func (c *Client) GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error) {
	var profile models.WalletProfile
	err := c.do(ctx, http.MethodGet, profilesPath+"/address/"+url.PathEscape(address), nil, http.StatusOK, &profile)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create stores a new profile
func (c *Client) Create(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error) {
	var profile models.WalletProfile
	if err := c.do(ctx, http.MethodPost, profilesPath, input, http.StatusCreated, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update replaces the profile with the given id
func (c *Client) Update(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error) {
	var profile models.WalletProfile
	if err := c.do(ctx, http.MethodPut, profilePath(id), input, http.StatusOK, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Delete removes the profile with the given id
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, profilePath(id), nil, http.StatusNoContent, nil)
}

// Categories fetches the risk categories the API accepts
func (c *Client) Categories(ctx context.Context) ([]types.RiskCategory, error) {
	var body struct {
		Categories []types.RiskCategory `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/risk-categories", nil, http.StatusOK, &body); err != nil {
		return nil, err
	}
	return body.Categories, nil
}

func profilePath(id int64) string {
	return profilesPath + "/" + strconv.FormatInt(id, 10)
}

// do sends one request and decodes the response into out when the status
// matches want. Any other status becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in interface{}, want int, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
		}).Warn("Profile API request failed")
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Profile API request")

	if resp.StatusCode != want {
		return decodeAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
