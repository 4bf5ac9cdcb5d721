// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package jobs

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-based implementation of Store.
//
// By default, it uses a shared in-memory database that is lost when the
// process ends. For persistent storage, provide a file path.
type SQLiteStore struct {
	dsn   string
	table string
	db    *sql.DB
}

type SQLiteStoreParams struct {
	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared".
	DBDataSourceName string

	// Optional name of the jobs table.
	// Defaults to "analysis_jobs".
	Table string
}

// NewSQLiteStore opens the database and creates the schema.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	s := &SQLiteStore{
		dsn:   cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		table: cmp.Or(params.Table, "analysis_jobs"),
	}

	s.db, err = sql.Open("sqlite3", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}
	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	if _, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if err = s.initDB(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL UNIQUE,
			job_data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.table))
	if err != nil {
		return fmt.Errorf("error creating jobs table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, job *Job) error {
	data, err := marshalJob(job)
	if err != nil {
		return fmt.Errorf("error JSON marshaling job: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO "%s" (job_id, job_data) VALUES (?, ?)
		ON CONFLICT (job_id) DO UPDATE SET
			job_data = excluded.job_data,
			updated_at = CURRENT_TIMESTAMP
	`, s.table), job.ID, data)
	if err != nil {
		return fmt.Errorf("error saving job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*Job, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT job_data FROM "%s" WHERE job_id = ?`, s.table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading job %s: %w", id, err)
	}
	return unmarshalJob(data)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s" WHERE job_id = ?`, s.table), id)
	if err != nil {
		return fmt.Errorf("error deleting job %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) (_ []*Job, err error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT job_data FROM "%s" ORDER BY seq ASC`, s.table))
	if err != nil {
		return nil, fmt.Errorf("error querying jobs: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var jobs []*Job
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		job, err := unmarshalJob(data)
		if err != nil {
			continue // Skip corrupted entries
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}
	return jobs, nil
}

// Close the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
