package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultEndpoint = "https://graphql.anilist.co"

// RequestError is returned once a request fails permanently or exhausts
// its retries. It carries enough to reproduce the call.
type RequestError struct {
	Operation string
	Status    int
	Variables map[string]any
	Body      string
}

func (e *RequestError) Error() string {
	vars, _ := json.Marshal(e.Variables)
	return fmt.Sprintf("%s failed status=%d vars=%s body=%s", e.Operation, e.Status, vars, e.Body)
}

// Transient reports whether the failing status was one the client retries.
func (e *RequestError) Transient() bool {
	return isTransient(e.Status)
}

// Status 0 stands for a transport-level failure.
func isTransient(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

type Config struct {
	Endpoint string
	// RequestsPerSecond is the aggregate ceiling for every call made
	// through Pacer. Ignored when Pacer is set.
	RequestsPerSecond float64
	Pacer             *rate.Limiter
	MaxRetries        int
	BaseDelay         time.Duration
	HTTPClient        *http.Client
}

// NewPacer returns a limiter that spaces calls at least 1/rps apart.
// Burst 1 makes it a single "next allowed time" cursor.
func NewPacer(rps float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(math.Max(rps, 0.01)), 1)
}

// Client posts GraphQL queries under a shared pacing limiter, retrying
// transient failures with exponential backoff.
type Client struct {
	endpoint   string
	http       *http.Client
	pacer      *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) *Client {
	c := &Client{
		endpoint:   cfg.Endpoint,
		http:       cfg.HTTPClient,
		pacer:      cfg.Pacer,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		sleep:      sleepContext,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.pacer == nil {
		c.pacer = NewPacer(cfg.RequestsPerSecond)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = 800 * time.Millisecond
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

type response struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

// Send issues one logical request and returns the response's data block.
func (c *Client) Send(ctx context.Context, operation, query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", operation, err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: pacing: %w", operation, err)
		}

		res := c.post(ctx, payload)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if res.status >= 200 && res.status < 300 {
			var env graphQLEnvelope
			if err := json.Unmarshal(res.body, &env); err == nil && len(env.Errors) == 0 {
				return env.Data, nil
			}
			// application-level errors are not retried
			return nil, c.requestError(operation, res, variables)
		}

		if !isTransient(res.status) || attempt >= c.maxRetries {
			return nil, c.requestError(operation, res, variables)
		}

		wait := c.backoff(attempt, res.retryAfter)
		vars, _ := json.Marshal(variables)
		log.Printf("[retry] %s status=%d waitMs=%d vars=%s", operation, res.status, wait.Milliseconds(), vars)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// backoff honours a server hint exactly, otherwise doubles the base delay
// per attempt.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return c.baseDelay * time.Duration(1<<attempt)
}

func (c *Client) post(ctx context.Context, payload []byte) response {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return response{body: []byte(err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{body: []byte(err.Error())}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{body: []byte(err.Error())}
	}
	return response{
		status:     resp.StatusCode,
		body:       body,
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func (c *Client) requestError(operation string, res response, variables map[string]any) *RequestError {
	return &RequestError{
		Operation: operation,
		Status:    res.status,
		Variables: variables,
		Body:      string(res.body),
	}
}

// parseRetryAfter reads the seconds form of the header. The HTTP-date
// form is ignored and falls back to exponential backoff.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * 1000 * float64(time.Millisecond))
}

// MediaPage fetches one page of the list-by-type query, most popular first.
func (c *Client) MediaPage(ctx context.Context, mediaType string, page, perPage int) ([]MediaNode, PageInfo, error) {
	raw, err := c.Send(ctx, "QueryMediaList", QueryMediaList, map[string]any{
		"page":    page,
		"perPage": perPage,
		"type":    mediaType,
		"sort":    []string{"POPULARITY_DESC"},
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	var data mediaListData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, PageInfo{}, fmt.Errorf("QueryMediaList: decode: %w", err)
	}
	return data.Page.Media, data.Page.PageInfo, nil
}

// StaffPage fetches one page of staff credits for a media entry.
func (c *Client) StaffPage(ctx context.Context, mediaID, page, perPage int) ([]StaffEdge, PageInfo, error) {
	raw, err := c.Send(ctx, "QueryMediaStaff", QueryMediaStaff, map[string]any{
		"id": mediaID, "page": page, "perPage": perPage,
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	var data mediaStaffData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, PageInfo{}, fmt.Errorf("QueryMediaStaff: decode: %w", err)
	}
	if data.Media == nil {
		return nil, PageInfo{}, nil
	}
	return data.Media.Staff.Edges, data.Media.Staff.PageInfo, nil
}

// CharactersPage fetches one page of characters (with Japanese voice
// actors) for a media entry.
func (c *Client) CharactersPage(ctx context.Context, mediaID, page, perPage int) ([]CharacterEdge, PageInfo, error) {
	raw, err := c.Send(ctx, "QueryMediaCharacters", QueryMediaCharacters, map[string]any{
		"id": mediaID, "page": page, "perPage": perPage,
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	var data mediaCharactersData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, PageInfo{}, fmt.Errorf("QueryMediaCharacters: decode: %w", err)
	}
	if data.Media == nil {
		return nil, PageInfo{}, nil
	}
	return data.Media.Characters.Edges, data.Media.Characters.PageInfo, nil
}
