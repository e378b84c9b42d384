package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/aiflavor/internal/model"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the database file inside the database directory.
const FileName = "aiflavor.db"

// timestampLayout is a fixed-width UTC layout, so that string comparison in
// SQL orders timestamps chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrInvalidRange is returned when the lower bound of a range query is
// greater than the upper bound.
var ErrInvalidRange = errors.New("invalid range: lower bound is greater than upper bound")

// RecordDB stores detection records in SQLite.
type RecordDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RecordDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, so that report commands can
	// read while a batch scan is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the record database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RecordDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file. The busy timeout lets a
	// records command wait for a scan that is writing.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?_pragma=busy_timeout(5000)&mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RecordDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the path of the database file.
func (rdb *RecordDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RecordDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RecordDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS detection_records (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		score INTEGER NOT NULL,
		failed INTEGER NOT NULL DEFAULT 0,
		details TEXT NOT NULL DEFAULT '',
		snapshot_digest TEXT NOT NULL DEFAULT '',
		features TEXT NOT NULL,
		metadata TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_url ON detection_records(url);
	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON detection_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_records_score ON detection_records(score);
	`
	_, err := rdb.db.ExecContext(ctx, schema)
	return err
}

const selectColumns = `SELECT id, url, title, timestamp, score, failed, details, snapshot_digest, features, metadata FROM detection_records`

const newestFirst = ` ORDER BY timestamp DESC, id DESC`

// SaveRecord inserts or replaces a record. A missing ID is filled in with a
// new ULID and a zero timestamp with the current time; both are written
// back to record.
func (rdb *RecordDB) SaveRecord(ctx context.Context, record *model.DetectionRecord) error {
	if record == nil {
		return errors.New("failed to save record: record is nil")
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	features := record.Features
	if features == nil {
		features = []model.Feature{}
	}

	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("failed to serialize features: %w", err)
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize metadata: %w", err)
	}

	query := `
	INSERT INTO detection_records (id, url, title, timestamp, score, failed, details, snapshot_digest, features, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		title = excluded.title,
		timestamp = excluded.timestamp,
		score = excluded.score,
		failed = excluded.failed,
		details = excluded.details,
		snapshot_digest = excluded.snapshot_digest,
		features = excluded.features,
		metadata = excluded.metadata
	`
	_, err = rdb.db.ExecContext(ctx, query,
		record.ID,
		record.URL,
		record.Title,
		formatTimestamp(record.Timestamp),
		record.Score,
		record.Failed,
		record.Details,
		record.SnapshotDigest,
		string(featuresJSON),
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetRecord returns the record with the given ID, or nil if there is none.
func (rdb *RecordDB) GetRecord(ctx context.Context, id string) (*model.DetectionRecord, error) {
	row := rdb.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// ListRecords returns the newest records first. limit <= 0 returns all.
func (rdb *RecordDB) ListRecords(ctx context.Context, limit int) ([]*model.DetectionRecord, error) {
	query := selectColumns + newestFirst
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return rdb.query(ctx, query, args...)
}

// SearchRecords returns records whose URL, title or details contain q,
// ignoring case. An empty query matches every record.
func (rdb *RecordDB) SearchRecords(ctx context.Context, q string) ([]*model.DetectionRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	query := selectColumns + `
	WHERE LOWER(url) LIKE ? ESCAPE '\'
	   OR LOWER(title) LIKE ? ESCAPE '\'
	   OR LOWER(details) LIKE ? ESCAPE '\'` + newestFirst
	return rdb.query(ctx, query, pattern, pattern, pattern)
}

// RecordsByDateRange returns records with from <= timestamp <= to.
func (rdb *RecordDB) RecordsByDateRange(ctx context.Context, from, to time.Time) ([]*model.DetectionRecord, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	query := selectColumns + ` WHERE timestamp >= ? AND timestamp <= ?` + newestFirst
	return rdb.query(ctx, query, formatTimestamp(from), formatTimestamp(to))
}

// RecordsByScoreRange returns records with minScore <= score <= maxScore.
func (rdb *RecordDB) RecordsByScoreRange(ctx context.Context, minScore, maxScore int) ([]*model.DetectionRecord, error) {
	if minScore > maxScore {
		return nil, ErrInvalidRange
	}
	query := selectColumns + ` WHERE score >= ? AND score <= ?` + newestFirst
	return rdb.query(ctx, query, minScore, maxScore)
}

// LatestForURL returns up to n of the newest records for url.
func (rdb *RecordDB) LatestForURL(ctx context.Context, url string, n int) ([]*model.DetectionRecord, error) {
	if n <= 0 {
		return []*model.DetectionRecord{}, nil
	}
	query := selectColumns + ` WHERE url = ?` + newestFirst + ` LIMIT ?`
	return rdb.query(ctx, query, url, n)
}

// DeleteRecord removes a record and reports whether it existed.
func (rdb *RecordDB) DeleteRecord(ctx context.Context, id string) (bool, error) {
	result, err := rdb.db.ExecContext(ctx, `DELETE FROM detection_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}
	return n > 0, nil
}

// ClearRecords removes every record and returns how many were removed.
func (rdb *RecordDB) ClearRecords(ctx context.Context) (int64, error) {
	result, err := rdb.db.ExecContext(ctx, `DELETE FROM detection_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear records: %w", err)
	}
	return result.RowsAffected()
}

// Stats summarizes the store. TotalSize is the byte size of the stored
// record data, not of the database file.
func (rdb *RecordDB) Stats(ctx context.Context) (*model.StorageStats, error) {
	query := `
	SELECT COUNT(*),
	       COALESCE(SUM(
	           LENGTH(CAST(id AS BLOB)) + LENGTH(CAST(url AS BLOB)) + LENGTH(CAST(title AS BLOB)) +
	           LENGTH(CAST(details AS BLOB)) + LENGTH(CAST(snapshot_digest AS BLOB)) +
	           LENGTH(CAST(features AS BLOB)) + LENGTH(CAST(metadata AS BLOB))
	       ), 0),
	       COALESCE(MIN(timestamp), ''),
	       COALESCE(MAX(timestamp), '')
	FROM detection_records
	`
	var (
		stats          model.StorageStats
		oldest, newest string
	)
	err := rdb.db.QueryRowContext(ctx, query).Scan(&stats.TotalRecords, &stats.TotalSize, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to compute storage stats: %w", err)
	}
	stats.OldestRecord = parseTimestamp(oldest)
	stats.NewestRecord = parseTimestamp(newest)
	return &stats, nil
}

// Export writes every record, newest first, to w as an indented JSON array.
func (rdb *RecordDB) Export(ctx context.Context, w io.Writer) error {
	records, err := rdb.ListRecords(ctx, 0)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to export records: %w", err)
	}
	return nil
}

func (rdb *RecordDB) query(ctx context.Context, query string, args ...any) ([]*model.DetectionRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.DetectionRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.DetectionRecord, error) {
	var (
		record       model.DetectionRecord
		timestamp    string
		featuresJSON string
		metadataJSON string
	)
	err := row.Scan(
		&record.ID,
		&record.URL,
		&record.Title,
		&timestamp,
		&record.Score,
		&record.Failed,
		&record.Details,
		&record.SnapshotDigest,
		&featuresJSON,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}
	record.Timestamp = parseTimestamp(timestamp)

	if err := json.Unmarshal([]byte(featuresJSON), &record.Features); err != nil {
		return nil, fmt.Errorf("failed to parse features of %s: %w", record.ID, err)
	}
	if record.Features == nil {
		record.Features = []model.Feature{}
	}
	if err := json.Unmarshal([]byte(metadataJSON), &record.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata of %s: %w", record.ID, err)
	}
	return &record, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the accepted stored timestamp formats.
// Rows written by older versions or edited by hand may use the others.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
