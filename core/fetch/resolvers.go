package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LinkResolver turns a provider id into a directly downloadable audio URL.
// Each implementation owns its request shape and response-parsing rule; an
// empty URL with a nil error means this provider has nothing for the id.
type LinkResolver interface {
	Name() string
	ResolveLink(ctx context.Context, providerID string) (string, error)
}

func newProviderClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// YTMP36Resolver resolves via the RapidAPI mp3-conversion endpoint: the
// first entry under audios.items carries the link.
type YTMP36Resolver struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewYTMP36Resolver creates a YTMP36Resolver.
func NewYTMP36Resolver(endpoint, apiKey string) *YTMP36Resolver {
	return &YTMP36Resolver{endpoint: endpoint, apiKey: apiKey, httpClient: newProviderClient()}
}

func (r *YTMP36Resolver) Name() string { return "ytmp36" }

func (r *YTMP36Resolver) ResolveLink(ctx context.Context, providerID string) (string, error) {
	var result struct {
		Audios struct {
			Items []struct {
				URL string `json:"url"`
			} `json:"items"`
		} `json:"audios"`
	}

	reqURL := fmt.Sprintf("%s?id=%s", r.endpoint, url.QueryEscape(providerID))
	headers := map[string]string{"x-rapidapi-key": r.apiKey}
	if err := getJSON(ctx, r.httpClient, reqURL, headers, &result); err != nil {
		return "", err
	}

	if len(result.Audios.Items) == 0 {
		return "", nil
	}
	return result.Audios.Items[0].URL, nil
}

// InvidiousResolver reads adaptiveFormats from an Invidious instance and
// picks the first entry whose mime type contains "audio".
type InvidiousResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewInvidiousResolver creates an InvidiousResolver.
func NewInvidiousResolver(endpoint string) *InvidiousResolver {
	return &InvidiousResolver{endpoint: endpoint, httpClient: newProviderClient()}
}

func (r *InvidiousResolver) Name() string { return "invidious" }

func (r *InvidiousResolver) ResolveLink(ctx context.Context, providerID string) (string, error) {
	var result struct {
		AdaptiveFormats []struct {
			URL      string `json:"url"`
			MimeType string `json:"mimeType"`
		} `json:"adaptiveFormats"`
	}

	reqURL := fmt.Sprintf("%s/%s", r.endpoint, url.PathEscape(providerID))
	if err := getJSON(ctx, r.httpClient, reqURL, nil, &result); err != nil {
		return "", err
	}

	for _, f := range result.AdaptiveFormats {
		if strings.Contains(f.MimeType, "audio") && f.URL != "" {
			return f.URL, nil
		}
	}
	return "", nil
}

// PipedResolver reads formats from a Piped-style streams endpoint and picks
// the first entry whose type contains "audio".
type PipedResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewPipedResolver creates a PipedResolver.
func NewPipedResolver(endpoint string) *PipedResolver {
	return &PipedResolver{endpoint: endpoint, httpClient: newProviderClient()}
}

func (r *PipedResolver) Name() string { return "piped" }

func (r *PipedResolver) ResolveLink(ctx context.Context, providerID string) (string, error) {
	var result struct {
		Formats []struct {
			URL  string `json:"url"`
			Type string `json:"type"`
		} `json:"formats"`
	}

	reqURL := fmt.Sprintf("%s/%s", r.endpoint, url.PathEscape(providerID))
	if err := getJSON(ctx, r.httpClient, reqURL, nil, &result); err != nil {
		return "", err
	}

	for _, f := range result.Formats {
		if strings.Contains(f.Type, "audio") && f.URL != "" {
			return f.URL, nil
		}
	}
	return "", nil
}

// audioExtensions are the containers the conversion provider may hand back.
var audioExtensions = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"aac":  true,
	"opus": true,
	"ogg":  true,
	"flac": true,
	"wav":  true,
}

// ConvertResolver reads audio_formats from a conversion-gateway endpoint and
// picks the first entry with a known audio container extension.
type ConvertResolver struct {
	endpoint   string
	httpClient *http.Client
}

// NewConvertResolver creates a ConvertResolver.
func NewConvertResolver(endpoint string) *ConvertResolver {
	return &ConvertResolver{endpoint: endpoint, httpClient: newProviderClient()}
}

func (r *ConvertResolver) Name() string { return "convert" }

func (r *ConvertResolver) ResolveLink(ctx context.Context, providerID string) (string, error) {
	var result struct {
		AudioFormats []struct {
			URL       string `json:"url"`
			Extension string `json:"extension"`
		} `json:"audio_formats"`
	}

	reqURL := fmt.Sprintf("%s/%s", r.endpoint, url.PathEscape(providerID))
	if err := getJSON(ctx, r.httpClient, reqURL, nil, &result); err != nil {
		return "", err
	}

	for _, f := range result.AudioFormats {
		if audioExtensions[strings.ToLower(f.Extension)] && f.URL != "" {
			return f.URL, nil
		}
	}
	return "", nil
}
