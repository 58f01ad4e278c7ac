package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"surveyline/pkg/db"
	"surveyline/pkg/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *db.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveSurvey inserts or replaces a survey. The full aggregate is kept as a
// msgpack payload; the counters are duplicated into columns for listing.
func (s *SQLiteStore) SaveSurvey(ctx context.Context, sv *model.Survey) error {
	if sv == nil || sv.ID == "" {
		return errors.New("survey id is required")
	}
	payload, err := msgpack.Marshal(sv)
	if err != nil {
		return fmt.Errorf("failed to encode survey %s: %w", sv.ID, err)
	}

	query := `INSERT OR REPLACE INTO surveys (id, name, point_count, run_count, skip_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sv.ID, sv.Name, len(sv.Points), len(sv.Runs), len(sv.Skips), payload, sv.CreatedAt.UTC(),
	)
	return err
}

// GetSurvey loads a survey by id. It returns ErrNotFound when no row matches.
func (s *SQLiteStore) GetSurvey(ctx context.Context, id string) (*model.Survey, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM surveys WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sv model.Survey
	if err := msgpack.Unmarshal(payload, &sv); err != nil {
		return nil, fmt.Errorf("failed to decode survey %s: %w", id, err)
	}
	return &sv, nil
}

// ListSurveys returns every stored survey, newest first.
func (s *SQLiteStore) ListSurveys(ctx context.Context) ([]model.SurveyInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, point_count, run_count, skip_count, created_at FROM surveys ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.SurveyInfo
	for rows.Next() {
		var info model.SurveyInfo
		var name sql.NullString
		if err := rows.Scan(&info.ID, &name, &info.PointCount, &info.RunCount, &info.SkipCount, &info.CreatedAt); err != nil {
			return nil, err
		}
		info.Name = name.String
		list = append(list, info)
	}
	return list, rows.Err()
}

// DeleteSurvey removes a survey. It returns ErrNotFound when no row matches.
func (s *SQLiteStore) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM surveys WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
