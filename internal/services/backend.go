package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

// Backend is the HTTP client of the shopping backend. It uploads images for visual search and sends chat
// messages. Requests carry no timeout and are never retried.
type Backend struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

type uploadResponse struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Response string `json:"response"`
}

const (
	// DefaultBackendURL is used when no backend URL is configured.
	DefaultBackendURL = "http://localhost:8000/api/v1"

	apiV1Prefix = "/api/v1"

	endpointUpload      = "/utils/upload"
	endpointChatMessage = "/chat/message"
)

// NewBackend creates a Backend for the API rooted at baseURL, e.g. http://localhost:8000/api/v1.
func NewBackend(baseURL string, logger *slog.Logger) Backend {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return Backend{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "backend")),
	}
}

// Upload sends an image to the backend and returns the absolute URL it is served at.
func (b Backend) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("error writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("error closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+endpointUpload, &body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: upload returned %d, body: %s", models.ErrBackendStatus, resp.StatusCode, string(respBody))
	}

	var res uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	url := b.ResolveURL(res.URL)
	b.logger.Debug("Uploaded image", slog.String("filename", filename), slog.String("url", url))
	return url, nil
}

// SendMessage posts a chat message and returns the assistant's reply. A reply with a non-success status
// yields an error wrapping models.ErrBackendStatus.
func (b Backend) SendMessage(ctx context.Context, chatReq models.ChatRequest) (string, error) {
	jsonBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	b.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+endpointChatMessage, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: chat returned %d, body: %s", models.ErrBackendStatus, resp.StatusCode, string(respBody))
	}

	var res chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	return res.Response, nil
}

// ResolveURL makes a URL returned by the backend absolute. URLs starting with "http" are kept, others are
// appended to the backend origin, i.e. the base URL without its /api/v1 prefix.
func (b Backend) ResolveURL(url string) string {
	if strings.HasPrefix(url, "http") {
		return url
	}
	return strings.Replace(b.baseURL, apiV1Prefix, "", 1) + url
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
