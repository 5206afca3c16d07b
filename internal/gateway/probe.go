package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"google.golang.org/genai"

	"github.com/amishk599/screener/internal/model"
)

// ModelInfo describes the upstream model the credential can reach.
type ModelInfo struct {
	Name             string
	DisplayName      string
	InputTokenLimit  int32
	OutputTokenLimit int32
}

// Probe checks that the configured credential can see the configured model.
// It runs at startup or on demand, never per request. Errors never contain
// the credential.
func Probe(ctx context.Context, cfg Config, httpClient *http.Client) (ModelInfo, error) {
	if cfg.APIKey == "" {
		return ModelInfo{}, &model.Error{
			Kind:    model.KindGatewayConfig,
			Message: "No upstream API key is configured.",
		}
	}

	opts, err := sdkHTTPOptions(cfg.BaseURL)
	if err != nil {
		return ModelInfo{}, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: opts,
	})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("create genai client: %s", redactKey(err.Error(), cfg.APIKey))
	}

	m, err := client.Models.Get(ctx, cfg.Model, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			msg := redactKey(apiErr.Message, cfg.APIKey)
			return ModelInfo{}, &model.Error{
				Kind:    model.KindUpstreamRejection,
				Message: msg,
				Err:     &model.UpstreamError{StatusCode: apiErr.Code, Message: msg},
			}
		}
		return ModelInfo{}, &model.Error{
			Kind:    model.KindTransport,
			Message: model.MsgTransport,
			Err:     errors.New(redactKey(err.Error(), cfg.APIKey)),
		}
	}

	return ModelInfo{
		Name:             m.Name,
		DisplayName:      m.DisplayName,
		InputTokenLimit:  m.InputTokenLimit,
		OutputTokenLimit: m.OutputTokenLimit,
	}, nil
}

// sdkHTTPOptions splits ".../v1beta" into the SDK's base URL and API version.
func sdkHTTPOptions(baseURL string) (genai.HTTPOptions, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return genai.HTTPOptions{}, fmt.Errorf("parse upstream base url: %w", err)
	}
	dir, version := path.Split(u.Path)
	u.Path = dir
	if u.Path == "" {
		u.Path = "/"
	}
	return genai.HTTPOptions{BaseURL: u.String(), APIVersion: version}, nil
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, redacted)
}
