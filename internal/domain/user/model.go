package user

import "time"

// MatchPrediction is one user's scoreline guess for a single fixture. The
// game id holds either the provider id or the derived temp id.
type MatchPrediction struct {
	GameID    string    `json:"game_id"`
	HomeTeam  string    `json:"home_team,omitempty"`
	AwayTeam  string    `json:"away_team,omitempty"`
	HomeScore *int      `json:"home_score,omitempty"`
	AwayScore *int      `json:"away_score,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// RoundPredictions groups the predictions a user submitted for one round.
type RoundPredictions struct {
	Matches []MatchPrediction `json:"matches"`
}

// Predictions maps round number (as a string key, matching the stored
// document shape) to that round's predictions.
type Predictions map[string]RoundPredictions

// SeasonPredictions are the long-running picks made once per season.
type SeasonPredictions struct {
	TopScorer      string     `json:"top_scorer,omitempty"`
	LeagueChampion string     `json:"league_champion,omitempty"`
	AssistKing     string     `json:"assist_king,omitempty"`
	RelegatedTeams []string   `json:"relegated_teams,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// MatchPoints records the points one prediction earned.
type MatchPoints struct {
	GameID string `json:"game_id"`
	Points int    `json:"points"`
}

// SeasonPoints holds points from season-long picks. It is resolved outside
// the per-round flow and carried through recomputation unchanged.
type SeasonPoints struct {
	TopScorer      int `json:"top_scorer"`
	AssistKing     int `json:"assist_king"`
	LeagueChampion int `json:"league_champion,omitempty"`
	RelegatedTeams int `json:"relegated_teams,omitempty"`
}

// Points is the resolved scoring state for one user.
type Points struct {
	TotalPoints     int                      `json:"total_points"`
	LastRoundPoints int                      `json:"last_round_points"`
	Matches         map[string][]MatchPoints `json:"matches"`
	SeasonPoints    SeasonPoints             `json:"season_points"`
}

// User is the aggregate stored per account.
type User struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	Name              string             `json:"name,omitempty"`
	Picture           string             `json:"picture,omitempty"`
	TeamName          string             `json:"team_name,omitempty"`
	Predictions       Predictions        `json:"predictions"`
	SeasonPredictions *SeasonPredictions `json:"season_predictions,omitempty"`
	Points            *Points            `json:"points,omitempty"`
	CreatedAt         time.Time          `json:"created_at,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at,omitempty"`
}

// EnsurePoints returns the user's points, initialising an empty structure
// when none has been resolved yet.
func (u *User) EnsurePoints() *Points {
	if u.Points == nil {
		u.Points = &Points{Matches: map[string][]MatchPoints{}}
	}
	if u.Points.Matches == nil {
		u.Points.Matches = map[string][]MatchPoints{}
	}
	return u.Points
}
