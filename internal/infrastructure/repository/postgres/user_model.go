package postgres

import (
	"database/sql"
	"time"
)

type userTableModel struct {
	ID                string       `db:"id"`
	Email             string       `db:"email"`
	Name              string       `db:"name"`
	Picture           string       `db:"picture"`
	TeamName          string       `db:"team_name"`
	Predictions       string       `db:"predictions"`
	SeasonPredictions string       `db:"season_predictions"`
	Points            string       `db:"points"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
	DeletedAt         sql.NullTime `db:"deleted_at"`
}

type userInsertModel struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	Name              string    `db:"name"`
	Picture           string    `db:"picture"`
	TeamName          string    `db:"team_name"`
	Predictions       string    `db:"predictions"`
	SeasonPredictions string    `db:"season_predictions"`
	Points            string    `db:"points"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
