package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/strogmv/siterelay/internal/domain"
)

const (
	DefaultGCMPrefix   = "https://android.googleapis.com/gcm/send/"
	DefaultGCMEndpoint = "https://android.googleapis.com/gcm/send"
)

// SendFunc performs one push attempt for an endpoint.
type SendFunc func(ctx context.Context, client *http.Client, endpoint domain.PushEndpoint, n domain.Notification, ttlSeconds int) error

// Strategy pairs an endpoint predicate with the request shape used for it.
type Strategy struct {
	Name  string
	Match func(endpointURL string) bool
	Send  SendFunc
}

// GCMConfig configures the provider-specific request shape.
type GCMConfig struct {
	APIKey   string
	Endpoint string
	Prefix   string
}

// GCMStrategy posts the registration id taken from the endpoint's trailing
// path segment to the provider endpoint.
func GCMStrategy(cfg GCMConfig) Strategy {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGCMEndpoint
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultGCMPrefix
	}
	return Strategy{
		Name: "gcm",
		Match: func(endpointURL string) bool {
			return strings.HasPrefix(endpointURL, cfg.Prefix)
		},
		Send: func(ctx context.Context, client *http.Client, endpoint domain.PushEndpoint, n domain.Notification, ttlSeconds int) error {
			body, err := json.Marshal(gcmRequest{
				RegistrationIDs: []string{registrationID(endpoint.URL)},
				TimeToLive:      ttlSeconds,
			})
			if err != nil {
				return fmt.Errorf("encode gcm request: %w", err)
			}
			header := http.Header{}
			header.Set("Authorization", "key="+cfg.APIKey)
			header.Set("Content-Type", "application/json")
			return post(ctx, client, cfg.Endpoint, header, body)
		},
	}
}

type gcmRequest struct {
	RegistrationIDs []string `json:"registration_ids"`
	TimeToLive      int      `json:"time_to_live,omitempty"`
}

// GenericStrategy wakes a standard push endpoint with an empty POST. The
// payload itself is fetched from the queue by the receiving worker.
func GenericStrategy() Strategy {
	return Strategy{
		Name:  "generic",
		Match: func(string) bool { return true },
		Send: func(ctx context.Context, client *http.Client, endpoint domain.PushEndpoint, n domain.Notification, ttlSeconds int) error {
			header := http.Header{}
			header.Set("TTL", strconv.Itoa(ttlSeconds))
			return post(ctx, client, endpoint.URL, header, nil)
		},
	}
}

// DefaultStrategies returns the provider table, most specific first.
func DefaultStrategies(gcm GCMConfig) []Strategy {
	return []Strategy{GCMStrategy(gcm), GenericStrategy()}
}

func registrationID(endpointURL string) string {
	trimmed := strings.TrimRight(endpointURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func post(ctx context.Context, client *http.Client, url string, header http.Header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrPushProviderFailure, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPushProviderFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrPushProviderFailure, resp.StatusCode)
	}
	return nil
}
