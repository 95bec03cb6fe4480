package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"metrics-tags-app/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteTagStore keeps one row per observed (metric, tag key) pair and
// answers distinct tag-key queries over a time window.
type SQLiteTagStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteTagStore(path string) *SQLiteTagStore {
	return &SQLiteTagStore{dbPath: path}
}

func (s *SQLiteTagStore) Init() error {
	var err error

	s.db, err = sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS tag_observations (
		organization TEXT NOT NULL,
		mri TEXT NOT NULL,
		use_case TEXT NOT NULL,
		project_id INTEGER NOT NULL,
		tag_key TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tag_observations_metric
		ON tag_observations (organization, mri, timestamp);`

	_, err = s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	log.Println("SQLiteTagStore initialized.")
	return nil
}

func (s *SQLiteTagStore) StoreObservation(ctx context.Context, obs domain.TagObservation) error {
	stmt, err := s.db.PrepareContext(ctx,
		"INSERT INTO tag_observations(organization, mri, use_case, project_id, tag_key, timestamp) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, obs.Organization, obs.MRI, obs.UseCase, obs.ProjectID, obs.TagKey, obs.Timestamp)
	if err != nil {
		return fmt.Errorf("error inserting tag observation: %w", err)
	}
	return nil
}

func (s *SQLiteTagStore) TagKeysFor(ctx context.Context, metric domain.ResolvedMetric, scope domain.TagScope) (map[string]struct{}, error) {
	query := "SELECT DISTINCT tag_key FROM tag_observations WHERE organization = ? AND mri = ? AND timestamp >= ? AND timestamp <= ?"
	args := []interface{}{scope.Organization, metric.MRI.Raw, scope.Start, scope.End}

	if scope.UseCase != "" {
		query += " AND use_case = ?"
		args = append(args, scope.UseCase)
	}

	query, args = appendProjectFilter(query, args, scope.ProjectIDs)

	return s.queryTagKeys(ctx, query, args)
}

func (s *SQLiteTagStore) AllTagKeys(ctx context.Context, scope domain.TagScope) (map[string]struct{}, error) {
	query := "SELECT DISTINCT tag_key FROM tag_observations WHERE organization = ? AND timestamp >= ? AND timestamp <= ?"
	args := []interface{}{scope.Organization, scope.Start, scope.End}

	if scope.UseCase != "" {
		query += " AND use_case = ?"
		args = append(args, scope.UseCase)
	}

	query, args = appendProjectFilter(query, args, scope.ProjectIDs)

	return s.queryTagKeys(ctx, query, args)
}

func (s *SQLiteTagStore) queryTagKeys(ctx context.Context, query string, args []interface{}) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	tagKeys := make(map[string]struct{})

	for rows.Next() {
		var key string

		if err := rows.Scan(&key); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		tagKeys[key] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return tagKeys, nil
}

func appendProjectFilter(query string, args []interface{}, projectIDs []int64) (string, []interface{}) {
	if len(projectIDs) == 0 {
		return query, args
	}

	placeholders := make([]string, len(projectIDs))
	for i, id := range projectIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query += " AND project_id IN (" + strings.Join(placeholders, ",") + ")"
	return query, args
}

func (s *SQLiteTagStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
