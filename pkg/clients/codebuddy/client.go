package codebuddy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/digitalocean/registration-wizard/pkg/models"
)

// DefaultBaseURL is the host serving the registration and posts endpoints
const DefaultBaseURL = "https://codebuddy.review"

//go:generate mockgen -destination=../../mocks/mock_codebuddy.go -package=mocks -source=client.go

// Client defines the interface for interacting with the registration API
type Client interface {
	Register(ctx context.Context, registration models.Registration) (models.SubmitAck, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
}

type clientImpl struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new registration API client. A zero timeout means
// requests only end with their context.
func NewClient(baseURL string, timeout time.Duration) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &clientImpl{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Register posts the registration. Any JSON answer is returned as an ack,
// whatever its status code; callers decide whether the status matters.
func (c *clientImpl) Register(ctx context.Context, registration models.Registration) (models.SubmitAck, error) {
	jsonPayload, err := json.Marshal(registration)
	if err != nil {
		return models.SubmitAck{}, fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return models.SubmitAck{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.SubmitAck{}, fmt.Errorf("error submitting registration: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SubmitAck{}, fmt.Errorf("error reading response: %w", err)
	}

	if !json.Valid(body) {
		return models.SubmitAck{}, fmt.Errorf("error parsing response: status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("Registration endpoint answered with status %d", resp.StatusCode)
	return models.SubmitAck{StatusCode: resp.StatusCode, Body: json.RawMessage(body)}, nil
}

func (c *clientImpl) ListPosts(ctx context.Context) ([]models.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/posts", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching posts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from posts API: %s", string(body))
	}

	var response models.PostsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	log.Printf("Fetched %d posts", len(response.Data))
	return response.Data, nil
}
