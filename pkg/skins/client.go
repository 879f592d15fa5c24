package skins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client is a head texture API client
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]*Texture
}

// NewClient creates a new texture client
func NewClient(config *ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: make(map[string]*Texture),
	}
}

// NewClientWithHTTPClient creates a new texture client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
		cache:      make(map[string]*Texture),
	}
}

// doRequest performs a GET request against the texture API
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}

	var resp *http.Response
	var lastErr error
	retryCount := c.config.RetryCount
	if retryCount == 0 {
		retryCount = 1
	}

	for i := 0; i < retryCount; i++ {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		break
	}

	if resp == nil {
		return fmt.Errorf("request failed after %d retries: %w", retryCount, lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &APIError{Code: ErrNotFound, Message: "texture not found"}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Code: ErrUnexpectedError, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// Resolve looks up the texture behind a prefixed material identifier such
// as "HEAD:Notch" or "HDB:23866". Plain materials resolve to nil without a
// network round trip.
func (c *Client) Resolve(ctx context.Context, materialID string) (*Texture, error) {
	prefix, arg, ok := splitMaterial(materialID)
	if !ok {
		return nil, nil
	}

	c.mu.RLock()
	cached, hit := c.cache[materialID]
	c.mu.RUnlock()
	if hit {
		return cached, nil
	}

	var tex *Texture
	var err error
	switch prefix {
	case PrefixHead:
		tex, err = c.PlayerHead(ctx, arg)
	case PrefixDatabase, PrefixCustom:
		tex, err = c.DatabaseHead(ctx, arg)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[materialID] = tex
	c.mu.Unlock()
	return tex, nil
}

// PlayerHead fetches the skin texture of a named player
func (c *Client) PlayerHead(ctx context.Context, name string) (*Texture, error) {
	var resp Response
	if err := c.doRequest(ctx, "/minecraft/profile/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, &APIError{Code: ErrNotFound, Message: "empty result"}
	}
	return resp.Result, nil
}

// DatabaseHead fetches a texture from the head database by numeric id
func (c *Client) DatabaseHead(ctx context.Context, id string) (*Texture, error) {
	var resp Response
	if err := c.doRequest(ctx, "/head/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, &APIError{Code: ErrNotFound, Message: "empty result"}
	}
	return resp.Result, nil
}

// splitMaterial splits "PREFIX:argument" and reports whether the prefix is
// one the client knows how to resolve.
func splitMaterial(materialID string) (prefix, arg string, ok bool) {
	idx := strings.IndexByte(materialID, ':')
	if idx <= 0 || idx == len(materialID)-1 {
		return "", "", false
	}
	prefix = strings.ToUpper(materialID[:idx])
	arg = materialID[idx+1:]
	switch prefix {
	case PrefixHead, PrefixDatabase, PrefixCustom:
		return prefix, arg, true
	}
	return "", "", false
}
