// Authorized request executor for the YouTube Data API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/shared"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// quotaReasons are the 403 reason codes that mean the project's quota is gone for the day.
var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
}

// Executor performs authorized requests against the catalog API.
//
// A nil error means a 2xx response. Failures are a [*RemoteError] when the service answered, or an error
// wrapping [shared.ErrTransient] when no response was received.
type Executor interface {
	Do(ctx context.Context, method, path string, body any) (*APIResponse, error)
}

// APIResponse is a raw response with status, headers and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// parseRateLimit reads the x-ratelimit-* headers. It reports false unless a remaining figure is present.
func parseRateLimit(h http.Header) (models.RemoteQuota, bool) {
	remaining, err := strconv.Atoi(h.Get("X-Ratelimit-Remaining"))
	if err != nil {
		return models.RemoteQuota{}, false
	}

	rq := models.RemoteQuota{Remaining: remaining}
	if limit, err := strconv.Atoi(h.Get("X-Ratelimit-Limit")); err == nil {
		rq.Limit = limit
	}
	if reset, err := strconv.ParseInt(h.Get("X-Ratelimit-Reset"), 10, 64); err == nil && reset > 0 {
		rq.ResetAt = time.Unix(reset, 0).UTC()
	}
	return rq, true
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrTransient, err)
	}
	return nil
}

// APIOpts configures an [APIService].
type APIOpts struct {
	BaseURL           string
	APIKey            string       // appended as key= when set
	Client            *http.Client // should already carry authorization, see [Authorize]
	RequestsPerSecond float64      // zero disables pacing
}

// APIService executes requests against the YouTube Data API.
type APIService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates an executor from opts.
func NewAPIService(opts APIOpts) *APIService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: opts.Client,
	}
	if opts.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return a
}

func (a *APIService) endpoint(path string) (string, error) {
	u, err := url.Parse(a.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("%w: bad request path %q: %v", shared.ErrInvalidArgument, path, err)
	}
	if a.apiKey != "" {
		q := u.Query()
		q.Set("key", a.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do sends method to path with body encoded as JSON (when non-nil).
func (a *APIService) Do(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	fullURL, err := a.endpoint(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrTransient, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header}

	if err := googleapi.CheckResponse(resp); err != nil {
		return apiResp, newRemoteError(resp.StatusCode, err)
	}

	if apiResp.Body, err = io.ReadAll(resp.Body); err != nil {
		return apiResp, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransient, err)
	}
	return apiResp, nil
}

// RemoteError is a non-2xx answer from the service.
type RemoteError struct {
	Status  int
	Reason  string
	Message string
}

func newRemoteError(status int, err error) *RemoteError {
	re := &RemoteError{Status: status, Message: err.Error()}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		re.Message = gerr.Message
		for _, item := range gerr.Errors {
			if item.Reason != "" {
				re.Reason = item.Reason
				break
			}
		}
	}
	return re
}

func (e *RemoteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube API error (status %d, %s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube API error (status %d): %s", e.Status, e.Message)
}

// QuotaExceeded reports whether the service rejected the call for quota reasons.
func (e *RemoteError) QuotaExceeded() bool {
	return e.Status == http.StatusForbidden && quotaReasons[e.Reason]
}

// Unwrap lets callers test with errors.Is against [shared.ErrAPIRequest] and one of
// [shared.ErrQuotaExhausted] or [shared.ErrTransient].
func (e *RemoteError) Unwrap() []error {
	if e.QuotaExceeded() {
		return []error{shared.ErrAPIRequest, shared.ErrQuotaExhausted}
	}
	return []error{shared.ErrAPIRequest, shared.ErrTransient}
}

// Outcome is the closed set of results at the executor boundary.
type Outcome int

const (
	OK Outcome = iota
	QuotaExceeded
	OtherError
)

// Classify maps an executor or catalog error onto an [Outcome].
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, shared.ErrQuotaExhausted):
		return QuotaExceeded
	default:
		return OtherError
	}
}
