// Package fpl talks to the Fantasy Premier League API. Public endpoints work
// anonymously; entry endpoints need a browser session cookie, imported from
// config and persisted to disk as the provider rotates it.
package fpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/prediksibola/predictor-league/internal/platform/resilience"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

const (
	defaultBaseURL = "https://fantasy.premierleague.com/api"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	BaseURL        string
	CookieHeader   string
	CookieFile     string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	client         *fasthttp.Client
	baseURL        string
	jar            *cookieJar
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:        baseURL,
		jar:            newCookieJar(cfg.CookieFile, cfg.CookieHeader, logger),
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// Bootstrap is the subset of bootstrap-static the service reads: current
// gameweek and the player roster.
type Bootstrap struct {
	Events []struct {
		ID        int  `json:"id"`
		IsCurrent bool `json:"is_current"`
		IsNext    bool `json:"is_next"`
		Finished  bool `json:"finished"`
	} `json:"events"`
	Elements []map[string]any `json:"elements"`
	Teams    []map[string]any `json:"teams"`
}

// CurrentEvent returns the in-progress gameweek, falling back to the next
// one between rounds.
func (b Bootstrap) CurrentEvent() int {
	for _, event := range b.Events {
		if event.IsCurrent {
			return event.ID
		}
	}
	for _, event := range b.Events {
		if event.IsNext {
			return event.ID
		}
	}
	return 0
}

func (c *Client) GetBootstrap(ctx context.Context) (Bootstrap, error) {
	var out Bootstrap
	if err := c.getJSON(ctx, "/bootstrap-static/", &out); err != nil {
		return Bootstrap{}, fmt.Errorf("fetch fpl bootstrap: %w", err)
	}
	return out, nil
}

// CurrentGameweek resolves the active gameweek from bootstrap-static.
func (c *Client) CurrentGameweek(ctx context.Context) (int, error) {
	bootstrap, err := c.GetBootstrap(ctx)
	if err != nil {
		return 0, err
	}
	gameweek := bootstrap.CurrentEvent()
	if gameweek == 0 {
		return 0, fmt.Errorf("%w: no current gameweek in bootstrap data", usecase.ErrNotFound)
	}
	return gameweek, nil
}

func (c *Client) GetFixtures(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.getJSON(ctx, "/fixtures/", &out); err != nil {
		return nil, fmt.Errorf("fetch fpl fixtures: %w", err)
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

func (c *Client) GetEntry(ctx context.Context, entryID int) (map[string]any, error) {
	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}
	var out map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/", entryID), &out); err != nil {
		return nil, fmt.Errorf("fetch fpl entry entry_id=%d: %w", entryID, err)
	}
	return out, nil
}

func (c *Client) GetEntryPicks(ctx context.Context, entryID, gameweek int) (map[string]any, error) {
	if entryID <= 0 || gameweek <= 0 {
		return nil, fmt.Errorf("%w: entry id and gameweek must be greater than zero", usecase.ErrInvalidInput)
	}
	var out map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweek), &out); err != nil {
		return nil, fmt.Errorf("fetch fpl picks entry_id=%d gameweek=%d: %w", entryID, gameweek, err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fantasy provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := c.executeRequest(ctx, path)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errFPLTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		if crerr.Is(err, errFPLTransient) {
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode fpl payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, path)
		if err == nil {
			return body, nil
		}
		if !crerr.Is(err, errFPLTransient) {
			return nil, err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "fpl request failed", "path", path, "error", lastErr)
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://fantasy.premierleague.com")
	req.Header.Set("Referer", "https://fantasy.premierleague.com")
	if cookie := c.jar.Header(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errFPLTransient, err)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusForbidden || status == fasthttp.StatusUnauthorized:
		return nil, fmt.Errorf("%w: fpl session cookie is missing or expired", usecase.ErrUnauthorized)
	case status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError:
		return nil, fmt.Errorf("%w: fpl status=%d", errFPLTransient, status)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("fpl status=%d", status)
	}

	if c.jar.UpdateFromResponse(resp) {
		if err := c.jar.Persist(); err != nil {
			c.logger.WarnContext(ctx, "persist fpl cookies failed", "error", err)
		}
	}

	// The response buffer is pooled, so hand back a copy.
	return append([]byte(nil), resp.Body()...), nil
}
