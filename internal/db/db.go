// Package db keeps the state of one interactive session in an in-memory
// SQLite database: the two listings, per-file sync status, the selection
// and the log console. Nothing survives the process.
package db

import (
	"database/sql"
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	_ "github.com/mattn/go-sqlite3"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New opens a fresh in-memory session database
func New() (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Errorf("opening session database: %w", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := &DB{sqlDB}
	if err := db.initialize(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Errorf("initializing session database: %w", err)
	}

	return db, nil
}

// initialize creates the necessary tables
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS source_files (
			id TEXT PRIMARY KEY,
			position INTEGER,
			name TEXT,
			size INTEGER,
			mime_type TEXT,
			status TEXT
		);
		CREATE TABLE IF NOT EXISTS destination_files (
			id TEXT PRIMARY KEY,
			position INTEGER,
			name TEXT,
			size INTEGER,
			mime_type TEXT
		);
		CREATE TABLE IF NOT EXISTS selection (
			file_id TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS logs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER,
			severity TEXT,
			message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_source_position ON source_files(position);
		CREATE INDEX IF NOT EXISTS idx_source_status ON source_files(status);
	`)
	return err
}

// ReplaceSourceFiles swaps in a fresh source listing. Every file starts
// pending again; selected IDs that disappeared from the listing are dropped.
func (db *DB) ReplaceSourceFiles(files []models.RemoteFile) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM source_files`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO source_files (id, position, name, size, mime_type, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range files {
		if _, err := stmt.Exec(f.ID, i, f.Name, f.Size, f.MimeType, string(models.StatusPending)); err != nil {
			return errors.Errorf("saving source file %s: %w", f.ID, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM selection WHERE file_id NOT IN (SELECT id FROM source_files)`); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceDestinationFiles swaps in a fresh destination listing
func (db *DB) ReplaceDestinationFiles(files []models.RemoteFile) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM destination_files`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO destination_files (id, position, name, size, mime_type)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range files {
		if _, err := stmt.Exec(f.ID, i, f.Name, f.Size, f.MimeType); err != nil {
			return errors.Errorf("saving destination file %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

func scanSourceFiles(rows *sql.Rows) ([]models.RemoteFile, error) {
	defer rows.Close()

	files := []models.RemoteFile{}
	for rows.Next() {
		var file models.RemoteFile
		var status string
		if err := rows.Scan(&file.ID, &file.Name, &file.Size, &file.MimeType, &status); err != nil {
			return nil, err
		}
		file.Status = models.SyncStatus(status)
		files = append(files, file)
	}
	return files, rows.Err()
}

// SourceFiles returns the source listing in the order the store reported it
func (db *DB) SourceFiles() ([]models.RemoteFile, error) {
	rows, err := db.Query(`
		SELECT id, name, size, mime_type, status
		FROM source_files
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	return scanSourceFiles(rows)
}

// SourceFile returns a single listed source file
func (db *DB) SourceFile(id string) (*models.RemoteFile, error) {
	var file models.RemoteFile
	var status string
	err := db.QueryRow(`
		SELECT id, name, size, mime_type, status
		FROM source_files WHERE id = ?
	`, id).Scan(&file.ID, &file.Name, &file.Size, &file.MimeType, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Errorf("%w: %s", ErrFileNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	file.Status = models.SyncStatus(status)
	return &file, nil
}

// DestinationFiles returns the destination listing
func (db *DB) DestinationFiles() ([]models.RemoteFile, error) {
	rows, err := db.Query(`
		SELECT id, name, size, mime_type
		FROM destination_files
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.RemoteFile{}
	for rows.Next() {
		var file models.RemoteFile
		if err := rows.Scan(&file.ID, &file.Name, &file.Size, &file.MimeType); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// UpdateFileStatus updates the status of a file
func (db *DB) UpdateFileStatus(id string, status models.SyncStatus) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM source_files WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Errorf("%w: %s", ErrFileNotFound, id)
	}
	if err != nil {
		return err
	}

	if !models.CanTransition(models.SyncStatus(current), status) {
		return errors.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, current, status)
	}

	if _, err := tx.Exec(`UPDATE source_files SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return err
	}
	return tx.Commit()
}

// ToggleSelection flips the selection of a listed source file and reports
// whether it is now selected
func (db *DB) ToggleSelection(id string) (bool, error) {
	if _, err := db.SourceFile(id); err != nil {
		return false, err
	}

	res, err := db.Exec(`DELETE FROM selection WHERE file_id = ?`, id)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	if _, err := db.Exec(`INSERT INTO selection (file_id) VALUES (?)`, id); err != nil {
		return false, err
	}
	return true, nil
}

// SelectedFiles returns the selected source files in listing order
func (db *DB) SelectedFiles() ([]models.RemoteFile, error) {
	rows, err := db.Query(`
		SELECT f.id, f.name, f.size, f.mime_type, f.status
		FROM source_files f
		JOIN selection s ON s.file_id = f.id
		ORDER BY f.position
	`)
	if err != nil {
		return nil, err
	}
	return scanSourceFiles(rows)
}

// ClearSelection deselects every file
func (db *DB) ClearSelection() error {
	_, err := db.Exec(`DELETE FROM selection`)
	return err
}

// AppendLog adds an entry to the log console and returns it with its
// sequence number
func (db *DB) AppendLog(ts time.Time, severity models.Severity, message string) (models.LogEntry, error) {
	res, err := db.Exec(`
		INSERT INTO logs (timestamp, severity, message) VALUES (?, ?, ?)
	`, ts.UnixNano(), string(severity), message)
	if err != nil {
		return models.LogEntry{}, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return models.LogEntry{}, err
	}
	return models.LogEntry{Seq: seq, Timestamp: ts, Severity: severity, Message: message}, nil
}

// Logs returns the newest limit entries, newest first. A limit of zero or
// less returns the whole log.
func (db *DB) Logs(limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT seq, timestamp, severity, message
		FROM logs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		var entry models.LogEntry
		var ts int64
		var severity string
		if err := rows.Scan(&entry.Seq, &ts, &severity, &entry.Message); err != nil {
			return nil, err
		}
		entry.Timestamp = time.Unix(0, ts)
		entry.Severity = models.Severity(severity)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetStats returns statistics about the source listing
func (db *DB) GetStats() (*models.CatalogStats, error) {
	var stats models.CatalogStats
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(size), 0),
			COUNT(CASE WHEN status = 'synced' THEN 1 END),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'error' THEN 1 END),
			(SELECT COUNT(*) FROM selection)
		FROM source_files
	`).Scan(
		&stats.TotalFiles,
		&stats.TotalSize,
		&stats.SyncedFiles,
		&stats.PendingFiles,
		&stats.FailedFiles,
		&stats.Selected,
	)
	if err != nil {
		return nil, errors.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
