// Package store persists submission XML and attachment files in MySQL or SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/formrows/internal/database"
	"github.com/dbsmedya/formrows/internal/rows"
	"github.com/dbsmedya/formrows/internal/sqlutil"
)

// ErrNotFound is returned when a submission or expected attachment does not exist.
var ErrNotFound = errors.New("not found")

// Attachment is one file a submission references.
type Attachment struct {
	Name     string
	BlobID   string
	Received bool
}

// Store reads and writes the submissions and attachments tables.
type Store struct {
	db          *sql.DB
	driver      string
	submissions string
	attachments string
}

// New creates a store over db. Table names are validated and quoted once.
func New(db *sql.DB, driver, submissionsTable, attachmentsTable string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if driver != database.MySQL && driver != database.SQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	submissions, err := sqlutil.QuoteIdentifierSafe(submissionsTable)
	if err != nil {
		return nil, fmt.Errorf("submissions table: %w", err)
	}
	attachments, err := sqlutil.QuoteIdentifierSafe(attachmentsTable)
	if err != nil {
		return nil, fmt.Errorf("attachments table: %w", err)
	}

	return &Store{
		db:          db,
		driver:      driver,
		submissions: submissions,
		attachments: attachments,
	}, nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the store's driver name.
func (s *Store) Driver() string {
	return s.driver
}

// EnsureSchema creates both tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range s.schemaDDL() {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create store schema: %w", err)
		}
	}
	return nil
}

func (s *Store) schemaDDL() []string {
	text, blob, stamp := "LONGTEXT", "LONGBLOB", "DATETIME(6)"
	suffix := " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	if s.driver == database.SQLite {
		text, blob, stamp, suffix = "TEXT", "BLOB", "TIMESTAMP", ""
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  form_id VARCHAR(255) NOT NULL,
  instance_id VARCHAR(255) NOT NULL,
  xml %s NOT NULL,
  created_at %s NOT NULL,
  PRIMARY KEY (form_id, instance_id)
)%s`, s.submissions, text, stamp, suffix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  form_id VARCHAR(255) NOT NULL,
  instance_id VARCHAR(255) NOT NULL,
  name VARCHAR(255) NOT NULL,
  blob_id VARCHAR(36) NULL,
  content %s NULL,
  received_at %s NULL,
  PRIMARY KEY (form_id, instance_id, name)
)%s`, s.attachments, blob, stamp, suffix),
	}
}

// GetXML returns the stored XML of a submission, or ErrNotFound.
func (s *Store) GetXML(ctx context.Context, formID, instanceID string) (string, error) {
	query := fmt.Sprintf("SELECT xml FROM %s WHERE form_id = ? AND instance_id = ?", s.submissions)

	var xml string
	err := s.db.QueryRowContext(ctx, query, formID, instanceID).Scan(&xml)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("submission %s/%s: %w", formID, instanceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read submission %s/%s: %w", formID, instanceID, err)
	}
	return xml, nil
}

// CreateSubmission stores a new submission together with the attachment
// names it expects, in one transaction.
func (s *Store) CreateSubmission(ctx context.Context, formID, instanceID, xml string, expected []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	insertSubmission := fmt.Sprintf(
		"INSERT INTO %s (form_id, instance_id, xml, created_at) VALUES (?, ?, ?, ?)", s.submissions)
	if _, err := tx.ExecContext(ctx, insertSubmission, formID, instanceID, xml, now); err != nil {
		return fmt.Errorf("failed to insert submission %s/%s: %w", formID, instanceID, err)
	}

	insertAttachment := fmt.Sprintf(
		"INSERT INTO %s (form_id, instance_id, name) VALUES (?, ?, ?)", s.attachments)
	for _, name := range expected {
		if _, err := tx.ExecContext(ctx, insertAttachment, formID, instanceID, name); err != nil {
			return fmt.Errorf("failed to insert expected attachment %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission %s/%s: %w", formID, instanceID, err)
	}
	return nil
}

// PutAttachment stores the content of an expected attachment, replacing any
// earlier upload. Returns ErrNotFound if the name was not expected.
func (s *Store) PutAttachment(ctx context.Context, formID, instanceID, name, blobID string, content []byte) error {
	query := fmt.Sprintf(
		"UPDATE %s SET blob_id = ?, content = ?, received_at = ? WHERE form_id = ? AND instance_id = ? AND name = ?",
		s.attachments)

	result, err := s.db.ExecContext(ctx, query, blobID, content, time.Now().UTC(), formID, instanceID, name)
	if err != nil {
		return fmt.Errorf("failed to store attachment %q: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store attachment %q: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("attachment %q of %s/%s: %w", name, formID, instanceID, ErrNotFound)
	}
	return nil
}

// Attachments lists the expected attachments of a submission by name.
func (s *Store) Attachments(ctx context.Context, formID, instanceID string) ([]Attachment, error) {
	query := fmt.Sprintf(
		"SELECT name, blob_id FROM %s WHERE form_id = ? AND instance_id = ? ORDER BY name", s.attachments)

	result, err := s.db.QueryContext(ctx, query, formID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer result.Close()

	var out []Attachment
	for result.Next() {
		var a Attachment
		var blobID sql.NullString
		if err := result.Scan(&a.Name, &blobID); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.BlobID = blobID.String
		a.Received = blobID.Valid
		out = append(out, a)
	}
	return out, result.Err()
}

// EachSubmission calls fn for every submission of a form in creation order.
// Iteration stops at the first error from fn.
func (s *Store) EachSubmission(ctx context.Context, formID string, fn func(rows.Submission) error) error {
	query := fmt.Sprintf(
		"SELECT instance_id, xml FROM %s WHERE form_id = ? ORDER BY created_at, instance_id", s.submissions)

	result, err := s.db.QueryContext(ctx, query, formID)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var sub rows.Submission
		if err := result.Scan(&sub.InstanceID, &sub.XML); err != nil {
			return fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := fn(sub); err != nil {
			return err
		}
	}
	return result.Err()
}

// EachAttachment calls fn for every received attachment of a form, ordered
// by instance and name.
func (s *Store) EachAttachment(ctx context.Context, formID string, fn func(instanceID, name string, content []byte) error) error {
	query := fmt.Sprintf(
		"SELECT instance_id, name, content FROM %s WHERE form_id = ? AND blob_id IS NOT NULL ORDER BY instance_id, name",
		s.attachments)

	result, err := s.db.QueryContext(ctx, query, formID)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var instanceID, name string
		var content []byte
		if err := result.Scan(&instanceID, &name, &content); err != nil {
			return fmt.Errorf("failed to scan attachment: %w", err)
		}
		if err := fn(instanceID, name, content); err != nil {
			return err
		}
	}
	return result.Err()
}
