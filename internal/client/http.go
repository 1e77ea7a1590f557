package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coopvote/plenum/internal/model"
)

// HTTPClient implements VotingClient using the plenum HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check that HTTPClient implements VotingClient.
var _ VotingClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) CreateAgendaItem(ctx context.Context, title, description string) (*model.AgendaItem, error) {
	body := map[string]string{"title": title}
	if description != "" {
		body["description"] = description
	}
	var item model.AgendaItem
	if err := c.doJSON(ctx, http.MethodPost, "/v1/agenda", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) GetAgendaItem(ctx context.Context, id string) (*model.AgendaItem, error) {
	var item model.AgendaItem
	if err := c.doJSON(ctx, http.MethodGet, "/v1/agenda/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) ListAgendaItems(ctx context.Context) (*ListAgendaItemsResponse, error) {
	var resp ListAgendaItemsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/agenda", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteAgendaItem(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/agenda/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) OpenSession(ctx context.Context, agendaItemID string, durationMinutes int) (*model.Session, error) {
	var body any
	if durationMinutes > 0 {
		body = map[string]int{"duration_minutes": durationMinutes}
	}
	var session model.Session
	path := "/v1/agenda/" + url.PathEscape(agendaItemID) + "/session"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) CloseSession(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	path := "/v1/sessions/" + url.PathEscape(id) + "/close"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) CastVote(ctx context.Context, agendaItemID, memberID string, choice model.Choice) (*model.Vote, error) {
	body := map[string]string{"member_id": memberID, "choice": choice.String()}
	var vote model.Vote
	path := "/v1/agenda/" + url.PathEscape(agendaItemID) + "/votes"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &vote); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (c *HTTPClient) GetResult(ctx context.Context, agendaItemID string) (*model.Result, error) {
	var result model.Result
	path := "/v1/agenda/" + url.PathEscape(agendaItemID) + "/result"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
