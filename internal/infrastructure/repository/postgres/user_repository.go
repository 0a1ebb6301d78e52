package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	qb "github.com/prediksibola/predictor-league/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user by id query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user id=%s: %w", id, err)
	}

	account, err := userFromTableModel(row)
	if err != nil {
		return user.User{}, false, err
	}
	return account, true, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query, args, err := qb.Select("*").From("users").
		Where(
			qb.Eq("email", email),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user by email query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user email=%s: %w", email, err)
	}

	account, err := userFromTableModel(row)
	if err != nil {
		return user.User{}, false, err
	}
	return account, true, nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.IsNull("deleted_at")).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		account, err := userFromTableModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

func (r *UserRepository) Insert(ctx context.Context, u user.User) error {
	predictionsJSON, err := marshalJSONColumn(u.Predictions)
	if err != nil {
		return fmt.Errorf("marshal user predictions: %w", err)
	}
	seasonJSON, err := marshalJSONColumn(u.SeasonPredictions)
	if err != nil {
		return fmt.Errorf("marshal user season predictions: %w", err)
	}
	pointsJSON, err := marshalJSONColumn(u.Points)
	if err != nil {
		return fmt.Errorf("marshal user points: %w", err)
	}

	now := time.Now().UTC()
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := u.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	model := userInsertModel{
		ID:                u.ID,
		Email:             strings.ToLower(strings.TrimSpace(u.Email)),
		Name:              u.Name,
		Picture:           u.Picture,
		TeamName:          u.TeamName,
		Predictions:       predictionsJSON,
		SeasonPredictions: seasonJSON,
		Points:            pointsJSON,
		CreatedAt:         createdAt.UTC(),
		UpdatedAt:         updatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("users", model, "")
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user id=%s: %w", u.ID, err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u user.User) error {
	query, args, err := qb.Update("users").
		Set("name", u.Name).
		Set("team_name", u.TeamName).
		Set("picture", u.Picture).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", u.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update user profile query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user profile id=%s: %w", u.ID, err)
	}
	return nil
}

func (r *UserRepository) UpdatePredictions(ctx context.Context, id string, predictions user.Predictions) error {
	return r.updateJSONColumn(ctx, id, "predictions", predictions)
}

func (r *UserRepository) UpdateSeasonPredictions(ctx context.Context, id string, sp user.SeasonPredictions) error {
	return r.updateJSONColumn(ctx, id, "season_predictions", sp)
}

func (r *UserRepository) UpdatePoints(ctx context.Context, id string, points user.Points) error {
	return r.updateJSONColumn(ctx, id, "points", points)
}

func (r *UserRepository) updateJSONColumn(ctx context.Context, id, column string, value any) error {
	raw, err := marshalJSONColumn(value)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", column, err)
	}

	query, args, err := qb.Update("users").
		Set(column, raw).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update user %s query: %w", column, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user %s id=%s: %w", column, id, err)
	}
	return nil
}

func userFromTableModel(row userTableModel) (user.User, error) {
	account := user.User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		Picture:   row.Picture,
		TeamName:  row.TeamName,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}

	if err := unmarshalJSONColumn(row.Predictions, &account.Predictions); err != nil {
		return user.User{}, fmt.Errorf("unmarshal user predictions id=%s: %w", row.ID, err)
	}
	if account.Predictions == nil {
		account.Predictions = user.Predictions{}
	}

	if strings.TrimSpace(row.SeasonPredictions) != "" && row.SeasonPredictions != "null" {
		var sp user.SeasonPredictions
		if err := unmarshalJSONColumn(row.SeasonPredictions, &sp); err != nil {
			return user.User{}, fmt.Errorf("unmarshal user season predictions id=%s: %w", row.ID, err)
		}
		account.SeasonPredictions = &sp
	}

	if strings.TrimSpace(row.Points) != "" && row.Points != "null" {
		var points user.Points
		if err := unmarshalJSONColumn(row.Points, &points); err != nil {
			return user.User{}, fmt.Errorf("unmarshal user points id=%s: %w", row.ID, err)
		}
		account.Points = &points
	}

	return account, nil
}

func marshalJSONColumn(value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalJSONColumn(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	return sonic.Unmarshal([]byte(raw), dst)
}
