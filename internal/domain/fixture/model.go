package fixture

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Source identifies where a fixture snapshot came from.
type Source string

const (
	SourceFotMob    Source = "fotmob"
	SourceWhoScored Source = "whoscored"
	SourceFBref     Source = "fbref"
)

func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceFotMob:
		return SourceFotMob, nil
	case SourceWhoScored:
		return SourceWhoScored, nil
	case SourceFBref:
		return SourceFBref, nil
	default:
		return "", fmt.Errorf("unknown fixture source %q", value)
	}
}

// Record is one match row in a source snapshot. Providers disagree on which
// fields they carry, so everything beyond the schedule basics is optional and
// event detail stays untyped.
type Record struct {
	Round            int              `json:"round"`
	Week             string           `json:"week,omitempty"`
	Date             Timestamp        `json:"date"`
	HomeTeam         string           `json:"home_team"`
	AwayTeam         string           `json:"away_team"`
	HomeScore        *int             `json:"home_score,omitempty"`
	AwayScore        *int             `json:"away_score,omitempty"`
	Status           string           `json:"status,omitempty"`
	GameID           string           `json:"game_id,omitempty"`
	TempID           string           `json:"temp_id,omitempty"`
	URL              string           `json:"url,omitempty"`
	Enriched         bool             `json:"enriched"`
	Events           []map[string]any `json:"events"`
	WhoScoredMatchID string           `json:"whoscored_match_id,omitempty"`
	WhoScored        map[string]any   `json:"whoscored,omitempty"`
}

// Key returns the identity used to carry state across snapshot rebuilds:
// the external game id when usable, otherwise the derived temp id.
func (r Record) Key() string {
	if r.HasUsableGameID() {
		return r.GameID
	}
	return r.TempID
}

func (r Record) HasUsableGameID() bool {
	id := strings.TrimSpace(r.GameID)
	return id != "" && id != "0"
}

// TempID derives the fallback identity for fixtures lacking a stable external
// id. It is a pure function of its inputs: the same round, team names and
// date always produce the same string.
func TempID(round int, homeTeam, awayTeam string, date Timestamp) string {
	home := strings.ReplaceAll(homeTeam, " ", "")
	away := strings.ReplaceAll(awayTeam, " ", "")
	return fmt.Sprintf("%d_%s_%s_%s", round, home, away, date.Label())
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}

// Timestamp wraps time.Time to accept the date formats the sources emit:
// RFC3339 with or without offset, and bare calendar dates. A value that fails
// to parse decodes to the zero time instead of an error so one malformed row
// cannot sink a whole snapshot.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func ParseTimestamp(value string) Timestamp {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: parsed.UTC()}
		}
	}
	return Timestamp{}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	*t = ParseTimestamp(raw)
	return nil
}

// Label renders the timestamp the way temp ids embed it: the calendar date
// when the clock part is midnight, the full instant otherwise.
func (t Timestamp) Label() string {
	if t.IsZero() {
		return ""
	}
	utc := t.UTC()
	if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 {
		return utc.Format("2006-01-02")
	}
	return utc.Format(time.RFC3339)
}
