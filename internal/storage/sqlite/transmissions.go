package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yegors/atc-semframe/pkg/logger"
)

// TransmissionStorage handles storage of parsed transmission records
type TransmissionStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTransmissionStorage creates a new SQLite transmission storage
func NewTransmissionStorage(db *sql.DB, log *logger.Logger) (*TransmissionStorage, error) {
	storage := &TransmissionStorage{
		db:     db,
		logger: log.Named("sqlite-transmissions"),
	}
	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *TransmissionStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transmissions (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			normalized TEXT NOT NULL,
			logical_form TEXT NOT NULL,
			frame_json TEXT NOT NULL,
			callsign TEXT,
			segments INTEGER NOT NULL,
			parse_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transmissions table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transmissions_callsign ON transmissions(callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_transmissions_created_at ON transmissions(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err = s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create transmission index: %w", err)
		}
	}
	return nil
}

// Store stores a transmission record, assigning an ID and timestamp when
// the record has none.
func (s *TransmissionStorage) Store(record *TransmissionRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO transmissions
		(id, content, normalized, logical_form, frame_json, callsign, segments, parse_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Content,
		record.Normalized,
		record.LogicalForm,
		record.FrameJSON,
		record.Callsign,
		record.Segments,
		record.ParseMillis,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transmission: %w", err)
	}
	return record.ID, nil
}

// GetByID returns one transmission, or nil when the ID is unknown.
func (s *TransmissionStorage) GetByID(id string) (*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, content, normalized, logical_form, frame_json, callsign, segments, parse_ms, created_at
		FROM transmissions
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmission by id: %w", err)
	}
	defer rows.Close()

	records, err := s.scanTransmissionRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetByCallsign returns transmissions for a specific aircraft callsign
func (s *TransmissionStorage) GetByCallsign(callsign string, limit int) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, content, normalized, logical_form, frame_json, callsign, segments, parse_ms, created_at
		FROM transmissions
		WHERE callsign = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		callsign, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmissions by callsign: %w", err)
	}
	defer rows.Close()

	return s.scanTransmissionRows(rows)
}

// GetByTimeRange returns transmissions within a time range
func (s *TransmissionStorage) GetByTimeRange(startTime, endTime time.Time) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, content, normalized, logical_form, frame_json, callsign, segments, parse_ms, created_at
		FROM transmissions
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC`,
		startTime.Format(time.RFC3339), endTime.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmissions by time range: %w", err)
	}
	defer rows.Close()

	return s.scanTransmissionRows(rows)
}

// GetRecent returns recent transmissions across all aircraft
func (s *TransmissionStorage) GetRecent(limit int) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, content, normalized, logical_form, frame_json, callsign, segments, parse_ms, created_at
		FROM transmissions
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transmissions: %w", err)
	}
	defer rows.Close()

	return s.scanTransmissionRows(rows)
}

// Count returns the number of stored transmissions.
func (s *TransmissionStorage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transmissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transmissions: %w", err)
	}
	return n, nil
}

// Prune deletes the oldest records beyond maxHistory. A non-positive
// maxHistory keeps everything.
func (s *TransmissionStorage) Prune(maxHistory int) (int64, error) {
	if maxHistory <= 0 {
		return 0, nil
	}
	result, err := s.db.Exec(
		`DELETE FROM transmissions
		WHERE id NOT IN (
			SELECT id FROM transmissions ORDER BY created_at DESC LIMIT ?
		)`,
		maxHistory,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transmissions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("Pruned old transmissions", logger.Int64("deleted", deleted))
	}
	return deleted, nil
}

// scanTransmissionRows scans database rows into TransmissionRecord structs
func (s *TransmissionStorage) scanTransmissionRows(rows *sql.Rows) ([]*TransmissionRecord, error) {
	var records []*TransmissionRecord
	for rows.Next() {
		var record TransmissionRecord
		var createdAt string
		var callsign sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.Content,
			&record.Normalized,
			&record.LogicalForm,
			&record.FrameJSON,
			&callsign,
			&record.Segments,
			&record.ParseMillis,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transmission: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if callsign.Valid {
			record.Callsign = callsign.String
		}

		records = append(records, &record)
	}
	return records, rows.Err()
}
