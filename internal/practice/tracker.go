// Package practice persists per-verse practice progress in SQLite.
package practice

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/progress"
	"github.com/FocuswithJustin/versemem/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS progress (
	source_id       TEXT NOT NULL,
	book            TEXT NOT NULL,
	chapter         INTEGER NOT NULL,
	verse           INTEGER NOT NULL,
	attempts        INTEGER NOT NULL DEFAULT 0,
	correct_guesses INTEGER NOT NULL DEFAULT 0,
	last_practiced  INTEGER NOT NULL,
	completed       INTEGER NOT NULL DEFAULT 0,
	started         INTEGER NOT NULL DEFAULT 0,
	mastery_level   INTEGER NOT NULL DEFAULT 0,
	memorized       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_id, book, chapter, verse)
)`

// Tracker stores progress.Progress rows keyed by source and verse.
type Tracker struct {
	db  *sql.DB
	now func() time.Time
}

// OpenTracker opens or creates the progress database at path.
func OpenTracker(ctx context.Context, path string) (*Tracker, error) {
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
	return &Tracker{db: db, now: time.Now}, nil
}

// Close closes the database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Get returns the stored progress of ref; ok is false when the verse was
// never practiced.
func (t *Tracker) Get(ctx context.Context, sourceID string, ref progress.Ref) (p progress.Progress, ok bool, err error) {
	row := t.db.QueryRowContext(ctx, `
		SELECT attempts, correct_guesses, last_practiced, completed, started, mastery_level, memorized
		FROM progress WHERE source_id = ? AND book = ? AND chapter = ? AND verse = ?`,
		sourceID, ref.Book, ref.Chapter, ref.Verse)

	p, err = scan(row, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.Progress{}, false, nil
	}
	if err != nil {
		return progress.Progress{}, false, verrors.Wrapf(err, "load progress %s", sourceID)
	}
	return p, true, nil
}

// Record applies one attempt to ref and stores the result.
func (t *Tracker) Record(ctx context.Context, sourceID string, ref progress.Ref, correct bool) (progress.Progress, error) {
	prev, _, err := t.Get(ctx, sourceID, ref)
	if err != nil {
		return progress.Progress{}, err
	}
	next := progress.Record(prev, ref, correct, t.now().UTC().Truncate(time.Second))
	return next, t.put(ctx, sourceID, next)
}

// ToggleMemorized flips the memorized flag of ref and stores the result.
func (t *Tracker) ToggleMemorized(ctx context.Context, sourceID string, ref progress.Ref) (progress.Progress, error) {
	prev, ok, err := t.Get(ctx, sourceID, ref)
	if err != nil {
		return progress.Progress{}, err
	}
	var prevPtr *progress.Progress
	if ok {
		prevPtr = &prev
	}
	next := progress.ToggleMemorized(prevPtr, ref, t.now().UTC().Truncate(time.Second))
	return next, t.put(ctx, sourceID, next)
}

// List returns every practiced verse of sourceID, most recent first.
func (t *Tracker) List(ctx context.Context, sourceID string) ([]progress.Progress, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT book, chapter, verse, attempts, correct_guesses, last_practiced, completed, started, mastery_level, memorized
		FROM progress WHERE source_id = ?
		ORDER BY last_practiced DESC, book, chapter, verse`, sourceID)
	if err != nil {
		return nil, verrors.Wrapf(err, "list progress %s", sourceID)
	}
	defer rows.Close()

	var out []progress.Progress
	for rows.Next() {
		var (
			ref progress.Ref
			p   progress.Progress
			ts  int64
		)
		if err := rows.Scan(&ref.Book, &ref.Chapter, &ref.Verse, &p.Attempts, &p.CorrectGuesses, &ts,
			&p.Completed, &p.Started, &p.MasteryLevel, &p.Memorized); err != nil {
			return nil, verrors.Wrap(err, "scan progress")
		}
		p.Ref = ref
		p.LastPracticed = time.Unix(ts, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// Reset deletes all progress for sourceID.
func (t *Tracker) Reset(ctx context.Context, sourceID string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM progress WHERE source_id = ?`, sourceID)
	return verrors.Wrapf(err, "reset progress %s", sourceID)
}

func (t *Tracker) put(ctx context.Context, sourceID string, p progress.Progress) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO progress
			(source_id, book, chapter, verse, attempts, correct_guesses, last_practiced, completed, started, mastery_level, memorized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourceID, p.Book, p.Chapter, p.Verse, p.Attempts, p.CorrectGuesses, p.LastPracticed.Unix(),
		p.Completed, p.Started, p.MasteryLevel, p.Memorized)
	return verrors.Wrapf(err, "save progress %s", sourceID)
}

func scan(row *sql.Row, ref progress.Ref) (progress.Progress, error) {
	p := progress.Progress{Ref: ref}
	var ts int64
	if err := row.Scan(&p.Attempts, &p.CorrectGuesses, &ts, &p.Completed, &p.Started, &p.MasteryLevel, &p.Memorized); err != nil {
		return progress.Progress{}, err
	}
	p.LastPracticed = time.Unix(ts, 0).UTC()
	return p, nil
}
