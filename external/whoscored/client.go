// Package whoscored fetches the WhoScored schedule feed. Each row keeps its
// full raw form alongside the mapped record because reconciliation attaches
// the whole provider row to the matched fixture.
package whoscored

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/prediksibola/predictor-league/internal/platform/resilience"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

var errWhoScoredTransient = crerr.New("whoscored transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	FeedURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	feedURL        string
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

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		feedURL:        strings.TrimSpace(cfg.FeedURL),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type feedEnvelope struct {
	Meta     fixture.Meta     `json:"meta"`
	Fixtures []map[string]any `json:"fixtures"`
}

// FetchSchedule downloads the feed and maps every row into a snapshot
// record. The untouched row is preserved on the record itself.
func (c *Client) FetchSchedule(ctx context.Context) ([]fixture.Record, fixture.Meta, error) {
	if c.feedURL == "" {
		return nil, fixture.Meta{}, fmt.Errorf("whoscored feed url is not configured")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "whoscored circuit breaker rejected request", "state", c.breaker.State())
			return nil, fixture.Meta{}, fmt.Errorf("%w: reference feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, c.feedURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errWhoScoredTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, fixture.Meta{}, fmt.Errorf("fetch whoscored schedule: %w", err)
	}

	var envelope feedEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fixture.Meta{}, fmt.Errorf("decode whoscored schedule: %w", err)
	}

	records := make([]fixture.Record, 0, len(envelope.Fixtures))
	for _, row := range envelope.Fixtures {
		records = append(records, mapRowToRecord(row))
	}

	meta := envelope.Meta
	if meta.LastUpdated.IsZero() {
		meta.LastUpdated = fixture.NewTimestamp(time.Now().UTC())
	}
	return records, meta, nil
}

func mapRowToRecord(row map[string]any) fixture.Record {
	record := fixture.Record{
		Round:    rowInt(row, "round"),
		Week:     rowString(row, "week"),
		Date:     fixture.ParseTimestamp(rowString(row, "date")),
		HomeTeam: rowString(row, "home_team"),
		AwayTeam: rowString(row, "away_team"),
		GameID:   rowString(row, "game_id"),
		URL:      rowString(row, "url"),
		Status:   fixture.NormalizeStatus(rowString(row, "status")),
		Events:   []map[string]any{},
		// Raw row travels with the record so cross-source matching can
		// hand the complete provider data to callers.
		WhoScored: row,
	}
	if record.Round <= 0 {
		record.Round = rowInt(row, "week")
	}
	if record.Week == "" && record.Round > 0 {
		record.Week = strconv.Itoa(record.Round)
	}
	if home, ok := rowScore(row, "home_score"); ok {
		record.HomeScore = &home
	}
	if away, ok := rowScore(row, "away_score"); ok {
		record.AwayScore = &away
	}
	if !record.HasUsableGameID() {
		record.TempID = fixture.TempID(record.Round, record.HomeTeam, record.AwayTeam, record.Date)
	}
	return record
}

func rowString(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func rowInt(row map[string]any, key string) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func rowScore(row map[string]any, key string) (int, bool) {
	raw, ok := row[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errWhoScoredTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errWhoScoredTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				lastErr = fmt.Errorf("%w: provider status=%d", errWhoScoredTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

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

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "whoscored request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}
