// Package fotmob fetches the FotMob league schedule and per-match event
// detail used to build the primary fixture snapshot.
package fotmob

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

const (
	defaultBaseURL  = "https://www.fotmob.com/api"
	defaultLeagueID = 47
)

var errFotMobTransient = crerr.New("fotmob transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	LeagueID       int
	League         string
	Season         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	leagueID       int
	league         string
	season         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	leagueID := cfg.LeagueID
	if leagueID <= 0 {
		leagueID = defaultLeagueID
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		leagueID:       leagueID,
		league:         strings.TrimSpace(cfg.League),
		season:         strings.TrimSpace(cfg.Season),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type scheduleEnvelope struct {
	Matches struct {
		AllMatches []matchItem `json:"allMatches"`
	} `json:"matches"`
	Fixtures []matchItem `json:"fixtures"`
}

type matchItem struct {
	ID        sonicNumber `json:"id"`
	Round     sonicNumber `json:"round"`
	RoundName sonicNumber `json:"roundName"`
	PageURL   string      `json:"pageUrl"`
	Home      matchSide   `json:"home"`
	Away      matchSide   `json:"away"`
	Status    matchStatus `json:"status"`
}

type matchSide struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type matchStatus struct {
	UTCTime   string `json:"utcTime"`
	Started   bool   `json:"started"`
	Finished  bool   `json:"finished"`
	Cancelled bool   `json:"cancelled"`
	ScoreStr  string `json:"scoreStr"`
}

// sonicNumber accepts the id fields the provider serves sometimes as JSON
// numbers and sometimes as strings.
type sonicNumber string

func (n *sonicNumber) UnmarshalJSON(data []byte) error {
	*n = sonicNumber(strings.Trim(string(data), `"`))
	return nil
}

func (n sonicNumber) String() string { return string(n) }

func (n sonicNumber) Int() int {
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0
	}
	return v
}

// FetchSchedule returns the full league schedule mapped into snapshot
// records, newest provider state wins.
func (c *Client) FetchSchedule(ctx context.Context) ([]fixture.Record, fixture.Meta, error) {
	path := "/leagues"
	query := map[string]string{
		"id":  strconv.Itoa(c.leagueID),
		"tab": "fixtures",
	}
	if c.season != "" {
		query["season"] = c.season
	}

	var envelope scheduleEnvelope
	if _, err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fixture.Meta{}, fmt.Errorf("fetch schedule league_id=%d: %w", c.leagueID, err)
	}

	items := envelope.Matches.AllMatches
	if len(items) == 0 {
		items = envelope.Fixtures
	}

	records := make([]fixture.Record, 0, len(items))
	for _, item := range items {
		records = append(records, mapMatchToRecord(item))
	}

	meta := fixture.Meta{
		LastUpdated: fixture.NewTimestamp(time.Now().UTC()),
		League:      c.league,
		Season:      c.season,
	}
	return records, meta, nil
}

// FetchMatchEvents returns the event list for one finished match. The detail
// payload nests events two levels under the match facts.
func (c *Client) FetchMatchEvents(ctx context.Context, matchID string) ([]map[string]any, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" || matchID == "0" {
		return nil, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope struct {
		Content struct {
			MatchFacts struct {
				Events struct {
					Events []map[string]any `json:"events"`
				} `json:"events"`
			} `json:"matchFacts"`
		} `json:"content"`
	}
	query := map[string]string{"matchId": matchID}
	if _, err := c.doJSON(ctx, "/matchDetails", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch match events match_id=%s: %w", matchID, err)
	}

	events := envelope.Content.MatchFacts.Events.Events
	if events == nil {
		events = []map[string]any{}
	}
	return events, nil
}

func mapMatchToRecord(item matchItem) fixture.Record {
	record := fixture.Record{
		Round:    item.Round.Int(),
		HomeTeam: strings.TrimSpace(item.Home.Name),
		AwayTeam: strings.TrimSpace(item.Away.Name),
		GameID:   item.ID.String(),
		URL:      strings.TrimSpace(item.PageURL),
		Date:     fixture.ParseTimestamp(item.Status.UTCTime),
		Events:   []map[string]any{},
	}
	if record.Round <= 0 {
		record.Round = item.RoundName.Int()
	}
	record.Week = strconv.Itoa(record.Round)

	record.HomeScore = item.Home.Score
	record.AwayScore = item.Away.Score
	if record.HomeScore == nil || record.AwayScore == nil {
		if home, away, ok := parseScoreStr(item.Status.ScoreStr); ok {
			record.HomeScore = &home
			record.AwayScore = &away
		}
	}

	switch {
	case item.Status.Cancelled:
		record.Status = fixture.StatusCancelled
	case item.Status.Finished:
		record.Status = fixture.StatusFinished
	case item.Status.Started:
		record.Status = fixture.StatusLive
	default:
		record.Status = fixture.StatusScheduled
	}

	if !record.HasUsableGameID() {
		record.TempID = fixture.TempID(record.Round, record.HomeTeam, record.AwayTeam, record.Date)
	}
	return record
}

func parseScoreStr(raw string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
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

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fotmob circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fixture data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFotMobTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return raw, nil
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
			lastErr = fmt.Errorf("%w: send request: %v", errFotMobTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFotMobTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d", errFotMobTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
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
	c.logger.WarnContext(ctx, "fotmob request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
