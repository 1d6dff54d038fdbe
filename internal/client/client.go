// Package client talks to the reward server on behalf of the CLI and timer.
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

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
)

// Client is an HTTP client for the reward endpoint
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL authenticating with token
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

type snapshotEnvelope struct {
	Session models.Snapshot `json:"session"`
}

type errorEnvelope struct {
	Error struct {
		Code    apperr.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// Snapshot fetches the current reward snapshot of a session
func (c *Client) Snapshot(ctx context.Context, sessionID string) (models.Snapshot, error) {
	var env snapshotEnvelope
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/rewards", nil, &env)
	return env.Session, err
}

// Continue moves a session into premium billing
func (c *Client) Continue(ctx context.Context, sessionID string) (models.Snapshot, error) {
	var env snapshotEnvelope
	body := map[string]string{"action": "continue"}
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/rewards", body, &env)
	return env.Session, err
}

// End stops a session and returns its frozen snapshot
func (c *Client) End(ctx context.Context, sessionID string) (models.Snapshot, error) {
	var env snapshotEnvelope
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/end", nil, &env)
	return env.Session, err
}

// ListSessions returns the caller's sessions with the given status ("" for all)
func (c *Client) ListSessions(ctx context.Context, status string) ([]models.Session, error) {
	path := "/sessions"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var env struct {
		Sessions []models.Session `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &env)
	return env.Sessions, err
}

// History returns the decision audit trail of a session
func (c *Client) History(ctx context.Context, sessionID string) ([]models.SnapshotRecord, error) {
	var env struct {
		Snapshots []models.SnapshotRecord `json:"snapshots"`
	}
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/rewards/history", nil, &env)
	return env.Snapshots, err
}

// VolunteerStats returns the caller's totals as a volunteer
func (c *Client) VolunteerStats(ctx context.Context) (models.VolunteerStats, error) {
	var env struct {
		Stats models.VolunteerStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/volunteers/me/stats", nil, &env)
	return env.Stats, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error body back into the matching apperr sentinel
func decodeError(resp *http.Response) error {
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if sentinel := apperr.FromCode(env.Error.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, env.Error.Message)
	}
	return fmt.Errorf("server returned %s: %s", resp.Status, env.Error.Message)
}
