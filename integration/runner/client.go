package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/handlers"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.Status, e.Message)
}

// CreateSession starts a session via POST /v1/sessions.
func CreateSession(ctx context.Context, client *http.Client, baseURL, story, knot string) (*handlers.SessionResponse, error) {
	return doSession(ctx, client, http.MethodPost, baseURL+"/v1/sessions",
		handlers.CreateSessionRequest{Story: story, Knot: knot}, http.StatusCreated)
}

// GetSession reads the current view via GET /v1/sessions/{id}.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*handlers.SessionResponse, error) {
	return doSession(ctx, client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s", baseURL, id), nil, http.StatusOK)
}

// PostAction runs continue, choose or restart on a session.
func PostAction(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, action string, index int) (*handlers.SessionResponse, error) {
	var body any
	if action == ActionChoose {
		body = handlers.ChooseRequest{Index: &index}
	}
	return doSession(ctx, client, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/%s", baseURL, id, action), body, http.StatusOK)
}

// DeleteSession ends a session via DELETE /v1/sessions/{id}.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send delete request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return readAPIError(resp)
	}
	return nil
}

func doSession(ctx context.Context, client *http.Client, method, url string, body any, want int) (*handlers.SessionResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return nil, readAPIError(resp)
	}

	var out handlers.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	return &out, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp handlers.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: string(body)}
	}
	return &APIError{Status: resp.StatusCode, Message: errResp.Error}
}
