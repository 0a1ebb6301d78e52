package leaderboard

// Entry is one user's standing in a leaderboard snapshot.
type Entry struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name,omitempty"`
	TeamName           string `json:"team_name,omitempty"`
	TotalPoints        int    `json:"total_points"`
	ExactPredictions   int    `json:"exact_predictions"`
	CorrectPredictions int    `json:"correct_predictions"`
	Position           int    `json:"position"`
	DeltaPosition      int    `json:"delta_position"`
}

// Snapshot is the ranked board for one round.
type Snapshot struct {
	RoundNumber int     `json:"round_number"`
	Entries     []Entry `json:"snapshot"`
}
