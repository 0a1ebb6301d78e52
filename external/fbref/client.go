// Package fbref fetches the FBref schedule feed and per-match event tables.
// Event fetches run in bulk during enrichment, so this client carries a
// circuit breaker in front of the provider.
package fbref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

var errFBrefTransient = crerr.New("fbref transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	ScheduleURL    string
	EventsURL      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	scheduleURL    string
	eventsURL      string
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
		scheduleURL:    strings.TrimSpace(cfg.ScheduleURL),
		eventsURL:      strings.TrimSpace(cfg.EventsURL),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type scheduleEnvelope struct {
	Meta     fixture.Meta  `json:"meta"`
	Fixtures []scheduleRow `json:"fixtures"`
}

type scheduleRow struct {
	Week     any    `json:"week"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Score    string `json:"score"`
	GameID   string `json:"game_id"`
	URL      string `json:"match_report"`
}

// FetchSchedule downloads the season schedule and maps every row into a
// snapshot record. Rows without a usable game id get a derived temp id.
func (c *Client) FetchSchedule(ctx context.Context) ([]fixture.Record, fixture.Meta, error) {
	if c.scheduleURL == "" {
		return nil, fixture.Meta{}, fmt.Errorf("fbref schedule url is not configured")
	}

	raw, err := c.request(ctx, c.scheduleURL)
	if err != nil {
		return nil, fixture.Meta{}, fmt.Errorf("fetch fbref schedule: %w", err)
	}

	var envelope scheduleEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fixture.Meta{}, fmt.Errorf("decode fbref schedule: %w", err)
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

// FetchMatchEvents returns the event rows for one match report.
func (c *Client) FetchMatchEvents(ctx context.Context, gameID string) ([]map[string]any, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" || gameID == "0" {
		return nil, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput)
	}
	if c.eventsURL == "" {
		return nil, fmt.Errorf("fbref events url is not configured")
	}

	fullURL := c.eventsURL + "?" + url.Values{"match_id": {gameID}}.Encode()
	raw, err := c.request(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch fbref events game_id=%s: %w", gameID, err)
	}

	var envelope struct {
		Events []map[string]any `json:"events"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode fbref events: %w", err)
	}
	if envelope.Events == nil {
		envelope.Events = []map[string]any{}
	}
	return envelope.Events, nil
}

func mapRowToRecord(row scheduleRow) fixture.Record {
	week := parseWeek(row.Week)
	date := row.Date
	if row.Time != "" {
		date = row.Date + " " + row.Time
	}

	record := fixture.Record{
		Round:    week,
		Week:     strconv.Itoa(week),
		Date:     fixture.ParseTimestamp(date),
		HomeTeam: strings.TrimSpace(row.HomeTeam),
		AwayTeam: strings.TrimSpace(row.AwayTeam),
		GameID:   strings.TrimSpace(row.GameID),
		URL:      strings.TrimSpace(row.URL),
		Events:   []map[string]any{},
	}

	if home, away, ok := parseScore(row.Score); ok {
		record.HomeScore = &home
		record.AwayScore = &away
		record.Status = fixture.StatusFinished
	} else {
		record.Status = fixture.StatusScheduled
	}

	if !record.HasUsableGameID() {
		record.TempID = fixture.TempID(record.Round, record.HomeTeam, record.AwayTeam, record.Date)
	}
	return record
}

func parseWeek(raw any) int {
	switch v := raw.(type) {
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

// parseScore handles both the ASCII hyphen and the en dash the provider
// uses in score cells.
func parseScore(raw string) (int, int, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "–", "-")
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func (c *Client) request(ctx context.Context, fullURL string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fbref circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, fullURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errFBrefTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
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
			lastErr = fmt.Errorf("%w: send request: %v", errFBrefTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFBrefTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				lastErr = fmt.Errorf("%w: provider status=%d", errFBrefTransient, resp.StatusCode)
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
	c.logger.WarnContext(ctx, "fbref request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}
