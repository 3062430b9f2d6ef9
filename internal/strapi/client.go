// Package strapi dispatches validated, authorized requests against a
// resolved backend profile and normalizes every response or transport
// failure into a uniform outcome.
package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cms-mcp/strapi-mcp/internal/config"
	"github.com/cms-mcp/strapi-mcp/internal/outcome"
)

const (
	contentTypesPath = "api/content-type-builder/content-types"
	componentsPath   = "api/content-type-builder/components"
	uploadPath       = "api/upload"
)

// Client issues exactly one HTTP request per call. No retries, no backoff:
// every transport failure is terminal and reported immediately. Connection
// pooling belongs to the injected http.Client.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

func NewClient(httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:   httpClient,
		logger: logger.With().Str("component", "strapi").Logger(),
	}
}

// Do builds and issues one request: base URL joined with the endpoint,
// bracket-encoded query, bearer auth, and a JSON body only for POST/PUT.
func (c *Client) Do(ctx context.Context, profile config.Profile, method, endpoint string, params, body map[string]any) outcome.Outcome {
	target := joinURL(profile.BaseURL, endpoint)
	if q := EncodeQuery(params); q != "" {
		target += "?" + q
	}

	var reqBody io.Reader
	hasBody := false
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		encoded, err := json.Marshal(body)
		if err != nil {
			return outcome.Internal(fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(encoded)
		hasBody = true
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return outcome.Internal(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+profile.APIKey)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", target).Msg("dispatching backend request")
	resp, err := c.http.Do(req)
	if err != nil {
		return outcome.Transport(fmt.Sprintf("request to %s failed: %v", profile.Name, err))
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

func (c *Client) readResponse(resp *http.Response) outcome.Outcome {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome.Transport(fmt.Sprintf("reading response body: %v", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(bytes.TrimSpace(data)) == 0 {
			return outcome.Success(json.RawMessage(`null`))
		}
		if !json.Valid(data) {
			encoded, err := json.Marshal(string(data))
			if err != nil {
				return outcome.Internal(fmt.Errorf("encoding non-JSON response: %w", err))
			}
			return outcome.Success(encoded)
		}
		return outcome.Success(json.RawMessage(data))
	}

	return outcome.Backend(resp.StatusCode, backendMessage(resp.StatusCode, resp.Status, data))
}

// backendMessage extracts the error detail from a Strapi error body
// (best-effort; a parse failure falls back to the status line) and appends
// a static troubleshooting hint keyed by status class.
func backendMessage(status int, statusLine string, body []byte) string {
	detail := statusLine
	var parsed struct {
		Error struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error.Message != "":
			detail = parsed.Error.Message
		case parsed.Message != "":
			detail = parsed.Message
		}
	}

	msg := fmt.Sprintf("request failed with status %d: %s", status, detail)
	if hint := statusHint(status); hint != "" {
		msg += ". " + hint
	}
	return msg
}

func statusHint(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "Check the request structure and required fields against the content-type schema (get-content-types)"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "Check that the configured api_key is valid and has permission for this endpoint"
	case status == http.StatusNotFound:
		return "Check the endpoint path and entry id; get-content-types lists the valid collections"
	case status >= 500:
		return "The Strapi server failed internally; check its logs"
	default:
		return ""
	}
}

// ContentTypes fetches the schema introspection document.
func (c *Client) ContentTypes(ctx context.Context, profile config.Profile) outcome.Outcome {
	return c.Do(ctx, profile, http.MethodGet, contentTypesPath, nil, nil)
}

// Components lists the server's components. The content-type-builder
// endpoint returns the full set, so pagination is computed here: the
// requested window is sliced out and described alongside the total.
func (c *Client) Components(ctx context.Context, profile config.Profile, page, pageSize int) outcome.Outcome {
	res := c.Do(ctx, profile, http.MethodGet, componentsPath, nil, nil)
	if res.Kind != outcome.KindSuccess {
		return res
	}

	items, err := decodeItemList(res.Body)
	if err != nil {
		return outcome.Internal(fmt.Errorf("decoding components response: %w", err))
	}

	total := len(items)
	pageCount := int(math.Ceil(float64(total) / float64(pageSize)))
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	body, err := json.Marshal(map[string]any{
		"data": items[start:end],
		"pagination": map[string]int{
			"page":      page,
			"pageSize":  pageSize,
			"total":     total,
			"pageCount": pageCount,
		},
	})
	if err != nil {
		return outcome.Internal(fmt.Errorf("encoding components page: %w", err))
	}
	return outcome.Success(body)
}

// decodeItemList accepts either a bare JSON array or a {"data": [...]}
// envelope, which varies across backend versions.
func decodeItemList(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Upload posts bytes as a multipart form to the fixed upload path, with an
// optional JSON-encoded fileInfo part carrying the metadata.
func (c *Client) Upload(ctx context.Context, profile config.Profile, filename string, data []byte, fileInfo map[string]any) outcome.Outcome {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return outcome.Internal(fmt.Errorf("building multipart form: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return outcome.Internal(fmt.Errorf("writing multipart payload: %w", err))
	}
	if len(fileInfo) > 0 {
		encoded, err := json.Marshal(fileInfo)
		if err != nil {
			return outcome.Internal(fmt.Errorf("encoding fileInfo: %w", err))
		}
		if err := writer.WriteField("fileInfo", string(encoded)); err != nil {
			return outcome.Internal(fmt.Errorf("writing fileInfo field: %w", err))
		}
	}
	if err := writer.Close(); err != nil {
		return outcome.Internal(fmt.Errorf("finalizing multipart form: %w", err))
	}

	target := joinURL(profile.BaseURL, uploadPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &form)
	if err != nil {
		return outcome.Internal(fmt.Errorf("building upload request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+profile.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug().Str("url", target).Int("bytes", len(data)).Msg("uploading media")
	resp, err := c.http.Do(req)
	if err != nil {
		return outcome.Transport(fmt.Sprintf("upload to %s failed: %v", profile.Name, err))
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

// Fetch retrieves raw bytes from an arbitrary URL with a plain GET; used by
// the media pipeline's source download. A non-2xx response is a transport
// failure, not a backend one: the source host is not a configured server.
func (c *Client) Fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building fetch request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetching %s: status %s", sourceURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", sourceURL, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func joinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
}
