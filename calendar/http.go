package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// timeout is the timeout for calendar requests.
var timeout = 30 * time.Second

// HTTPService talks to a REST calendar endpoint. Requests are authenticated
// with a bearer token and rate limited so a burst of habit edits cannot
// exhaust the remote quota.
type HTTPService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTP creates an HTTPService for the given endpoint and static token.
func NewHTTP(baseURL, token string) *HTTPService {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = timeout
	return &HTTPService{
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

func (s *HTTPService) CreateRecurringEvent(ctx context.Context, desc *EventDescriptor) (string, error) {
	var response struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/events", desc, &response); err != nil {
		return "", err
	}
	if response.ID == "" {
		return "", errors.New("calendar returned empty event id")
	}
	return response.ID, nil
}

func (s *HTTPService) UpdateEvent(ctx context.Context, eventID string, desc *EventDescriptor) error {
	return s.do(ctx, http.MethodPatch, "/events/"+eventID, desc, nil)
}

func (s *HTTPService) DeleteEvent(ctx context.Context, eventID string) error {
	return s.do(ctx, http.MethodDelete, "/events/"+eventID, nil, nil)
}

func (s *HTTPService) do(ctx context.Context, method, path string, payload, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter interrupted")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to marshal calendar payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to construct calendar request to %s", path)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calendar request to %s failed", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read calendar response from %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("calendar request to %s failed, status code: %d, response body: %s", path, resp.StatusCode, raw)
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return errors.Wrapf(err, "failed to decode calendar response from %s", path)
		}
	}
	return nil
}
