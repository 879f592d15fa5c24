// Package skins provides a client for resolving custom head textures
package skins

import "time"

// Material prefixes that require a texture lookup before the item can be
// rendered. Anything else is a plain material and never touches the client.
const (
	PrefixHead     = "HEAD"
	PrefixDatabase = "HDB"
	PrefixCustom   = "CH"
)

// Error codes returned by the texture API
const (
	ErrUnexpectedError = "UNEXPECTED_ERROR"
	ErrNotFound        = "NOT_FOUND"
	ErrRateLimited     = "RATE_LIMITED"
)

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ClientConfig holds configuration for the texture client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// Texture is a resolved head texture
type Texture struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Value   string `json:"value"`
	SkinURL string `json:"skin_url,omitempty"`
}

// Response wraps the API response with either result or error
type Response struct {
	Result *Texture  `json:"result,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}
