package postgres

import "time"

type leaderboardTableModel struct {
	RoundNumber int       `db:"round_number"`
	Entries     string    `db:"entries"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type leaderboardInsertModel struct {
	RoundNumber int       `db:"round_number"`
	Entries     string    `db:"entries"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
