package api

import (
	"context"
	"net/http"
	"net/url"
)

// AppConfig is the read-only application configuration served by the backend.
type AppConfig struct {
	AppCode      string `json:"appCode"`
	AppName      string `json:"appName"`
	PrimaryColor string `json:"primaryColor"`
	LogoURL      string `json:"logoUrl,omitempty"`
}

// FetchAppConfig loads the configuration for appCode. An empty code asks the
// backend for its default.
func (c *Client) FetchAppConfig(ctx context.Context, appCode string) (*AppConfig, error) {
	const op = "FetchAppConfig"

	rawQuery := ""
	if appCode != "" {
		rawQuery = url.Values{"appcode": {appCode}}.Encode()
	}

	data, err := c.do(ctx, op, http.MethodGet, c.endpoint(rawQuery, "app-config"), nil)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := decode(op, data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
