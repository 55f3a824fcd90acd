package sqlstorage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/ryanparsons7/calendly-notion/internal/store"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	dbErrUniqueViolation = "23505"
)

//go:embed schema.sql
var schemaSQL string

type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Path     string
}

type Storage struct {
	driver string
	dsn    string
	db     *sqlx.DB
	now    func() time.Time
}

type row struct {
	RecordID    string         `db:"record_id"`
	ExternalKey string         `db:"external_key"`
	Title       string         `db:"title"`
	Link        sql.NullString `db:"link"`
	StartTime   time.Time      `db:"start_time"`
	EndTime     time.Time      `db:"end_time"`
	Properties  string         `db:"properties"`
}

func New(config Config) *Storage {
	s := &Storage{driver: config.Driver, now: time.Now}
	switch config.Driver {
	case DriverSQLite:
		s.dsn = config.Path
	default:
		s.driver = DriverPostgres
		s.dsn = fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			config.Host, config.Port, config.Database, config.Username, config.Password)
	}
	return s
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, s.driver, s.dsn)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	if s.driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) FindByKey(ctx context.Context, databaseID string, key string) (store.Record, bool, error) {
	var r row
	err := s.db.GetContext(
		ctx,
		&r,
		s.db.Rebind("SELECT record_id, external_key, title, link, start_time, end_time, properties "+
			"FROM records WHERE database_id=? AND external_key=?"),
		databaseID, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, fmt.Errorf("failed to query record %q: %w", key, err)
	}
	record, err := r.toRecord()
	if err != nil {
		return store.Record{}, false, err
	}
	return record, true, nil
}

func (s *Storage) Create(ctx context.Context, databaseID string, r *store.Record) error {
	if r.ExternalKey == "" {
		return store.ErrEmptyKey
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}
	props, err := encodeProperties(r.Properties)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	now := s.now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		s.db.Rebind("INSERT INTO records(database_id, external_key, record_id, title, link, start_time, end_time, "+
			"properties, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		databaseID, r.ExternalKey, id, r.Title, nullString(r.Link),
		r.StartTime.UTC(), r.EndTime.UTC(), props, now, now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate key %q: %w", r.ExternalKey, store.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to insert record %q: %w", r.ExternalKey, err)
	}
	r.RecordID = id
	return nil
}

func (s *Storage) Update(ctx context.Context, databaseID string, r store.Record) error {
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}
	props, err := encodeProperties(r.Properties)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		s.db.Rebind("UPDATE records SET title=?, link=?, start_time=?, end_time=?, properties=?, updated_at=? "+
			"WHERE database_id=? AND external_key=?"),
		r.Title, nullString(r.Link), r.StartTime.UTC(), r.EndTime.UTC(), props, s.now().UTC(),
		databaseID, r.ExternalKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update record %q: %w", r.ExternalKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update record %q: %w", r.ExternalKey, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update record with key %q: %w", r.ExternalKey, store.ErrNotFound)
	}
	return nil
}

// RemoveBefore drops records of meetings that ended before t.
func (s *Storage) RemoveBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM records WHERE end_time < ?"), t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r row) toRecord() (store.Record, error) {
	record := store.Record{
		RecordID:    r.RecordID,
		ExternalKey: r.ExternalKey,
		Title:       r.Title,
		StartTime:   r.StartTime.UTC(),
		EndTime:     r.EndTime.UTC(),
	}
	if r.Link.Valid {
		link := r.Link.String
		record.Link = &link
	}
	if err := json.Unmarshal([]byte(r.Properties), &record.Properties); err != nil {
		return store.Record{}, fmt.Errorf("failed to decode properties of %q: %w", r.ExternalKey, err)
	}
	return record, nil
}

func encodeProperties(props map[string]interface{}) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(data), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == dbErrUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
