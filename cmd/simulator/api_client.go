package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Option struct {
	OptionID    string `json:"optionId"`
	Description string `json:"description"`
	YesVotes    int    `json:"yesVotes"`
	NoVotes     int    `json:"noVotes"`
}

type Session struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CreatedBy string   `json:"createdBy"`
	Status    string   `json:"status"`
	Users     []string `json:"users"`
	Options   []Option `json:"options"`
}

type OptionTally struct {
	OptionID string `json:"optionId"`
	YesCount int    `json:"yesCount"`
}

type Result struct {
	Kind        string        `json:"kind"`
	MemberCount int           `json:"memberCount"`
	Unanimous   []string      `json:"unanimous"`
	AllResults  []OptionTally `json:"allResults"`
}

// RegisterUser creates a new user account with a throwaway email
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	suffix := uuid.New().String()[:8]

	body := map[string]string{
		"email":       fmt.Sprintf("%s_%s@simulator.local", baseName, suffix),
		"displayName": fmt.Sprintf("%s_%s", baseName, suffix),
		"password":    "testpassword123",
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusOK, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	return &result.User, result.AccessToken, nil
}

// CreateSession creates a decision session owned by the token's user
func (c *APIClient) CreateSession(token, title string, options []string) (*Session, error) {
	body := map[string]interface{}{
		"title":   title,
		"options": options,
	}

	var session Session
	if err := c.do(http.MethodPost, "/sessions", body, token, http.StatusCreated, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

// GetSession fetches session details
func (c *APIClient) GetSession(token, sessionID string) (*Session, error) {
	var session Session
	if err := c.do(http.MethodGet, "/sessions/"+sessionID, nil, token, http.StatusOK, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// JoinSession adds the token's user to a session
func (c *APIClient) JoinSession(token, sessionID string) error {
	if err := c.do(http.MethodPost, "/sessions/"+sessionID+"/join", nil, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("join session: %w", err)
	}
	return nil
}

// SetStatus moves a session through its lifecycle
func (c *APIClient) SetStatus(token, sessionID, status string) error {
	body := map[string]string{"status": status}
	if err := c.do(http.MethodPost, "/sessions/"+sessionID+"/status", body, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// Swipe records one vote
func (c *APIClient) Swipe(token, sessionID, optionID, vote string) error {
	body := map[string]string{
		"optionId": optionID,
		"vote":     vote,
	}
	if err := c.do(http.MethodPost, "/sessions/"+sessionID+"/swipes", body, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("swipe: %w", err)
	}
	return nil
}

// GetResult computes the session's aggregate result
func (c *APIClient) GetResult(token, sessionID string) (*Result, error) {
	var result Result
	if err := c.do(http.MethodGet, "/sessions/"+sessionID+"/result", nil, token, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &result, nil
}

// do sends a JSON request and decodes the response into out when it is not nil.
func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
