package source

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/sqlite"
)

// DefaultMinLength is the shortest text, in characters, accepted as a
// downloaded translation.
const DefaultMinLength = 1000

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id            TEXT PRIMARY KEY,
	content       BLOB NOT NULL,
	size          INTEGER NOT NULL,
	fingerprint   TEXT NOT NULL,
	downloaded_at INTEGER NOT NULL
)`

// Record describes a stored source.
type Record struct {
	ID           string    `json:"id"`
	Size         int       `json:"size"`
	Fingerprint  string    `json:"fingerprint"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Store keeps downloaded source texts in SQLite, xz-compressed, with a
// BLAKE3 fingerprint of the uncompressed text.
type Store struct {
	db        *sql.DB
	path      string
	minLength int
	now       func() time.Time
}

// OpenStore opens or creates the store at path. minLength <= 0 selects
// DefaultMinLength.
func OpenStore(ctx context.Context, path string, minLength int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, verrors.NewIO("create directory", filepath.Dir(path), err)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, verrors.NewIO("open", path, err)
	}
	if err := sqlite.Configure(ctx, db); err != nil {
		db.Close()
		return nil, verrors.NewIO("configure", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, verrors.NewIO("migrate", path, err)
	}

	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Store{db: db, path: path, minLength: minLength, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Fingerprint returns the hex BLAKE3-256 digest of text.
func Fingerprint(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Save stores a downloaded text, rejecting texts shorter than the store's
// minimum length.
func (s *Store) Save(ctx context.Context, id, text string) (Record, error) {
	if n := utf8.RuneCountInString(text); n < s.minLength {
		return Record{}, &verrors.ValidationError{
			Field:   "text",
			Value:   id,
			Message: fmt.Sprintf("source %s too short: %d characters, want at least %d", id, n, s.minLength),
		}
	}
	return s.Put(ctx, id, text)
}

// Put stores text under id without a length check, replacing any previous
// text.
func (s *Store) Put(ctx context.Context, id, text string) (Record, error) {
	if id == "" {
		return Record{}, verrors.NewValidation("id", "must not be empty")
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return Record{}, verrors.NewIO("compress", id, err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return Record{}, verrors.NewIO("compress", id, err)
	}
	if err := w.Close(); err != nil {
		return Record{}, verrors.NewIO("compress", id, err)
	}

	rec := Record{
		ID:           id,
		Size:         len(text),
		Fingerprint:  Fingerprint(text),
		DownloadedAt: s.now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sources (id, content, size, fingerprint, downloaded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, buf.Bytes(), rec.Size, rec.Fingerprint, rec.DownloadedAt.Unix())
	if err != nil {
		return Record{}, verrors.NewIO("write", id, err)
	}
	return rec, nil
}

// Load returns the stored text for id. A missing id is a NotFoundError; a
// text whose fingerprint no longer matches is a ParseError.
func (s *Store) Load(ctx context.Context, id string) (string, error) {
	var blob []byte
	var fingerprint string
	err := s.db.QueryRowContext(ctx,
		`SELECT content, fingerprint FROM sources WHERE id = ?`, id).Scan(&blob, &fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", verrors.NewNotFound("source", id)
	}
	if err != nil {
		return "", verrors.NewIO("read", id, err)
	}

	r, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", verrors.NewIO("decompress", id, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", verrors.NewIO("decompress", id, err)
	}

	text := string(data)
	if Fingerprint(text) != fingerprint {
		return "", verrors.NewParse("source", id, "fingerprint mismatch")
	}
	return text, nil
}

// Fetch implements Provider over the stored texts.
func (s *Store) Fetch(ctx context.Context, sourceID string) (string, error) {
	text, err := s.Load(ctx, sourceID)
	if err != nil {
		return "", verrors.NewSourceUnavailable(sourceID, s.path, err)
	}
	return text, nil
}

// IsDownloaded reports whether id is stored.
func (s *Store) IsDownloaded(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources WHERE id = ?`, id).Scan(&n); err != nil {
		return false, verrors.NewIO("read", id, err)
	}
	return n > 0, nil
}

// AnyDownloaded reports whether at least one source is stored.
func (s *Store) AnyDownloaded(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&n); err != nil {
		return false, verrors.NewIO("read", s.path, err)
	}
	return n > 0, nil
}

// List returns the stored sources ordered by id.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, size, fingerprint, downloaded_at FROM sources ORDER BY id`)
	if err != nil {
		return nil, verrors.NewIO("read", s.path, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.Size, &rec.Fingerprint, &ts); err != nil {
			return nil, verrors.NewIO("read", s.path, err)
		}
		rec.DownloadedAt = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, verrors.NewIO("read", s.path, err)
	}
	return out, nil
}

// Remove deletes id. Removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return verrors.NewIO("delete", id, err)
	}
	return nil
}

// Clear deletes every stored source.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sources`); err != nil {
		return verrors.NewIO("delete", s.path, err)
	}
	return nil
}
