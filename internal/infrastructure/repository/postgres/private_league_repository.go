package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prediksibola/predictor-league/internal/domain/privateleague"
	qb "github.com/prediksibola/predictor-league/internal/platform/querybuilder"
)

type PrivateLeagueRepository struct {
	db *sqlx.DB
}

func NewPrivateLeagueRepository(db *sqlx.DB) *PrivateLeagueRepository {
	return &PrivateLeagueRepository{db: db}
}

func (r *PrivateLeagueRepository) GetByID(ctx context.Context, id string) (privateleague.League, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id))
}

func (r *PrivateLeagueRepository) GetByCode(ctx context.Context, code string) (privateleague.League, bool, error) {
	return r.getOne(ctx, qb.Eq("code", strings.ToUpper(strings.TrimSpace(code))))
}

func (r *PrivateLeagueRepository) getOne(ctx context.Context, match qb.Condition) (privateleague.League, bool, error) {
	query, args, err := qb.Select("*").From("private_leagues").
		Where(match, qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return privateleague.League{}, false, fmt.Errorf("build get private league query: %w", err)
	}

	var row privateLeagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return privateleague.League{}, false, nil
		}
		return privateleague.League{}, false, fmt.Errorf("get private league: %w", err)
	}

	league, err := privateLeagueFromTableModel(row)
	if err != nil {
		return privateleague.League{}, false, err
	}
	return league, true, nil
}

func (r *PrivateLeagueRepository) ListByUser(ctx context.Context, userID string) ([]privateleague.League, error) {
	// Membership lives inside the managers JSONB document.
	query, args, err := qb.Select("*").From("private_leagues").
		Where(
			qb.Expr("managers @> ?::jsonb", fmt.Sprintf(`[{"user_id":%q}]`, userID)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list private leagues query: %w", err)
	}

	var rows []privateLeagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select private leagues user_id=%s: %w", userID, err)
	}

	out := make([]privateleague.League, 0, len(rows))
	for _, row := range rows {
		league, err := privateLeagueFromTableModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, league)
	}
	return out, nil
}

func (r *PrivateLeagueRepository) Insert(ctx context.Context, l privateleague.League) error {
	model, err := privateLeagueToInsertModel(l)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("private_leagues", model, "")
	if err != nil {
		return fmt.Errorf("build insert private league query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert private league id=%s: %w", l.ID, err)
	}
	return nil
}

func (r *PrivateLeagueRepository) Replace(ctx context.Context, l privateleague.League) error {
	rulesJSON, err := marshalJSONColumn(l.Rules)
	if err != nil {
		return fmt.Errorf("marshal private league rules: %w", err)
	}
	managersJSON, err := marshalJSONColumn(l.Managers)
	if err != nil {
		return fmt.Errorf("marshal private league managers: %w", err)
	}

	query, args, err := qb.Update("private_leagues").
		Set("name", l.Name).
		Set("code", l.Code).
		Set("admin_id", l.AdminID).
		Set("rules", rulesJSON).
		Set("managers", managersJSON).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", l.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build replace private league query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("replace private league id=%s: %w", l.ID, err)
	}
	return nil
}

func (r *PrivateLeagueRepository) Delete(ctx context.Context, id string) error {
	query, args, err := qb.Update("private_leagues").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete private league query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete private league id=%s: %w", id, err)
	}
	return nil
}

func privateLeagueToInsertModel(l privateleague.League) (privateLeagueInsertModel, error) {
	rulesJSON, err := marshalJSONColumn(l.Rules)
	if err != nil {
		return privateLeagueInsertModel{}, fmt.Errorf("marshal private league rules: %w", err)
	}
	managersJSON, err := marshalJSONColumn(l.Managers)
	if err != nil {
		return privateLeagueInsertModel{}, fmt.Errorf("marshal private league managers: %w", err)
	}

	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return privateLeagueInsertModel{
		ID:        l.ID,
		Name:      l.Name,
		Code:      l.Code,
		AdminID:   l.AdminID,
		Rules:     rulesJSON,
		Managers:  managersJSON,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}, nil
}

func privateLeagueFromTableModel(row privateLeagueTableModel) (privateleague.League, error) {
	league := privateleague.League{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		AdminID:   row.AdminID,
		CreatedAt: row.CreatedAt.UTC(),
	}

	if err := unmarshalJSONColumn(row.Rules, &league.Rules); err != nil {
		return privateleague.League{}, fmt.Errorf("unmarshal private league rules id=%s: %w", row.ID, err)
	}
	if err := unmarshalJSONColumn(row.Managers, &league.Managers); err != nil {
		return privateleague.League{}, fmt.Errorf("unmarshal private league managers id=%s: %w", row.ID, err)
	}
	if league.Managers == nil {
		league.Managers = []privateleague.Manager{}
	}

	return league, nil
}
