package postgres

import (
	"database/sql"
	"time"
)

type privateLeagueTableModel struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	Code      string       `db:"code"`
	AdminID   string       `db:"admin_id"`
	Rules     string       `db:"rules"`
	Managers  string       `db:"managers"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
	DeletedAt sql.NullTime `db:"deleted_at"`
}

type privateLeagueInsertModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	AdminID   string    `db:"admin_id"`
	Rules     string    `db:"rules"`
	Managers  string    `db:"managers"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
