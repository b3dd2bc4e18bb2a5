package notesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API is the subset of the notes HTTP API the engine drives.
type API interface {
	List(ctx context.Context, params Params) (*Page, error)
	Create(ctx context.Context, note NewNote) (*Note, error)
	Update(ctx context.Context, id string, patch NotePatch) (*Note, error)
	SetFavorite(ctx context.Context, id string, isFavorite bool) (*Note, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, items []PositionUpdate) (int64, error)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notes api: %d %s", e.Status, e.Message)
}

// HTTPClient talks to a notes server rooted at BaseURL (e.g. http://localhost:3000/api).
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errBody)
		if errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *HTTPClient) List(ctx context.Context, params Params) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/notes", params.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) Create(ctx context.Context, note NewNote) (*Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodPost, "/notes", nil, note, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Update(ctx context.Context, id string, patch NotePatch) (*Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SetFavorite(ctx context.Context, id string, isFavorite bool) (*Note, error) {
	var out Note
	body := map[string]bool{"isFavorite": isFavorite}
	if err := c.do(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id)+"/favorite", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil, nil)
}

func (c *HTTPClient) Reorder(ctx context.Context, items []PositionUpdate) (int64, error) {
	var out struct {
		Success      bool  `json:"success"`
		UpdatedCount int64 `json:"updatedCount"`
	}
	body := map[string][]PositionUpdate{"items": items}
	if err := c.do(ctx, http.MethodPost, "/notes/reorder", nil, body, &out); err != nil {
		return 0, err
	}
	return out.UpdatedCount, nil
}
