package storage

import (
	"charades/domain"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func (pgr *PostgresRepo) Ping(ctx context.Context) error {
	return dbError(pgr.pool.Ping(ctx))
}

// RecordGame stores a finished game and its teams in one transaction.
func (pgr *PostgresRepo) RecordGame(ctx context.Context, record domain.GameRecord) error {
	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return dbError(err)
	}
	defer tx.Rollback(ctx)

	var teamCount *int
	if record.TeamCount > 0 {
		teamCount = &record.TeamCount
	}

	var gameId int64
	err = tx.QueryRow(ctx,
		`INSERT INTO games(mode, team_count, final_score, duration, categories, words_guessed)
		 VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
		record.Mode, teamCount, record.FinalScore, record.Duration, nonNil(record.Categories), record.WordsGuessed,
	).Scan(&gameId)
	if err != nil {
		return dbError(err)
	}

	if len(record.Teams) > 0 {
		batch := &pgx.Batch{}
		for _, team := range record.Teams {
			batch.Queue(
				`INSERT INTO teams(game_id, name, score, color, order_index) VALUES($1, $2, $3, $4, $5)`,
				gameId, team.Name, team.Score, team.Color, team.OrderIndex,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err)
		}
	}

	return dbError(tx.Commit(ctx))
}

// GameHistory returns the latest games, newest first.
func (pgr *PostgresRepo) GameHistory(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	rows, err := pgr.pool.Query(ctx,
		`SELECT id, mode, COALESCE(team_count, 0), final_score, duration, categories, words_guessed, created_at
		 FROM games ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	games := []domain.GameRecord{}
	for rows.Next() {
		var g domain.GameRecord
		if err := rows.Scan(&g.Id, &g.Mode, &g.TeamCount, &g.FinalScore, &g.Duration, &g.Categories, &g.WordsGuessed, &g.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return games, nil
}

func (pgr *PostgresRepo) TeamsByGameId(ctx context.Context, gameId int64) ([]domain.TeamRecord, error) {
	var exists bool
	if err := pgr.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)", gameId).Scan(&exists); err != nil {
		return nil, dbError(err)
	}
	if !exists {
		return nil, domain.ErrGameNotFound
	}

	rows, err := pgr.pool.Query(ctx,
		`SELECT id, game_id, name, score, color, order_index FROM teams WHERE game_id = $1 ORDER BY order_index`, gameId)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	teams := []domain.TeamRecord{}
	for rows.Next() {
		var t domain.TeamRecord
		if err := rows.Scan(&t.Id, &t.GameId, &t.Name, &t.Score, &t.Color, &t.OrderIndex); err != nil {
			return nil, dbError(err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return teams, nil
}

const customCategoryColumns = "id, name, words, icon, color, device_id, created_at"

func (pgr *PostgresRepo) CustomCategories(ctx context.Context, deviceId string) ([]domain.CustomCategory, error) {
	rows, err := pgr.pool.Query(ctx,
		"SELECT "+customCategoryColumns+" FROM custom_categories WHERE device_id = $1 ORDER BY id", deviceId)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	categories := []domain.CustomCategory{}
	for rows.Next() {
		c, err := scanCustomCategory(rows)
		if err != nil {
			return nil, dbError(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return categories, nil
}

func (pgr *PostgresRepo) CreateCustomCategory(ctx context.Context, c domain.CustomCategory) (domain.CustomCategory, error) {
	row := pgr.pool.QueryRow(ctx,
		`INSERT INTO custom_categories(name, words, icon, color, device_id) VALUES($1, $2, $3, $4, $5)
		 RETURNING `+customCategoryColumns,
		c.Name, nonNil(c.Words), c.Icon, c.Color, c.DeviceId)

	created, err := scanCustomCategory(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// "22001" is string_data_right_truncation
		if errors.As(err, &pgErr) && pgErr.Code == "22001" {
			return domain.CustomCategory{}, domain.ErrInvalidCategory
		}
		return domain.CustomCategory{}, dbError(err)
	}
	return created, nil
}

// UpdateCustomCategory changes the fields set in patch.
func (pgr *PostgresRepo) UpdateCustomCategory(ctx context.Context, id int64, patch domain.CustomCategoryPatch) (domain.CustomCategory, error) {
	var words []string
	if patch.Words != nil {
		words = *patch.Words
	}

	row := pgr.pool.QueryRow(ctx,
		`UPDATE custom_categories SET
		   name = COALESCE($2, name),
		   words = COALESCE($3, words),
		   icon = COALESCE($4, icon),
		   color = COALESCE($5, color)
		 WHERE id = $1
		 RETURNING `+customCategoryColumns,
		id, patch.Name, words, patch.Icon, patch.Color)

	updated, err := scanCustomCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomCategory{}, domain.ErrCategoryNotFound
		}
		return domain.CustomCategory{}, dbError(err)
	}
	return updated, nil
}

// DeleteCustomCategory removes a custom category and returns what was removed.
func (pgr *PostgresRepo) DeleteCustomCategory(ctx context.Context, id int64) (domain.CustomCategory, error) {
	row := pgr.pool.QueryRow(ctx,
		"DELETE FROM custom_categories WHERE id = $1 RETURNING "+customCategoryColumns, id)

	deleted, err := scanCustomCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomCategory{}, domain.ErrCategoryNotFound
		}
		return domain.CustomCategory{}, dbError(err)
	}
	return deleted, nil
}

func scanCustomCategory(row pgx.Row) (domain.CustomCategory, error) {
	var c domain.CustomCategory
	err := row.Scan(&c.Id, &c.Name, &c.Words, &c.Icon, &c.Color, &c.DeviceId, &c.CreatedAt)
	return c, err
}

// dbError passes cancellations through and marks everything else as an
// unexpected database error.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
