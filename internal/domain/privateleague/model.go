package privateleague

import "time"

// Rules configures how a private league awards points. Defaults mirror the
// public scoring plus season-pick bonuses.
type Rules struct {
	PointsForBullseye      int `json:"points_for_bullseye"`
	PointsForWin           int `json:"points_for_win"`
	PointsForLoss          int `json:"points_for_loss"`
	PointsForTopScorer     int `json:"points_for_top_scorer"`
	PointsForAssistKing    int `json:"points_for_assist_king"`
	PointsForChampion      int `json:"points_for_champion"`
	PointsPerRelegatedTeam int `json:"points_per_relegated_team"`
}

func DefaultRules() Rules {
	return Rules{
		PointsForBullseye:      3,
		PointsForWin:           1,
		PointsForLoss:          0,
		PointsForTopScorer:     10,
		PointsForAssistKing:    10,
		PointsForChampion:      10,
		PointsPerRelegatedTeam: 5,
	}
}

// Manager is one member of a private league.
type Manager struct {
	UserID   string `json:"user_id"`
	TeamName string `json:"team_name"`
	Points   int    `json:"points"`
}

// League is an invite-code gated group of managers.
type League struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rules     Rules     `json:"rules"`
	Code      string    `json:"code"`
	AdminID   string    `json:"admin"`
	Managers  []Manager `json:"managers"`
	CreatedAt time.Time `json:"created_at"`
}

// HasManager reports whether the given user already belongs to the league.
func (l League) HasManager(userID string) bool {
	for _, m := range l.Managers {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
