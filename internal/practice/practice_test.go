package practice

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/corpus"
	"github.com/FocuswithJustin/versemem/core/progress"
	"github.com/FocuswithJustin/versemem/internal/service"
	"github.com/FocuswithJustin/versemem/internal/source"
)

const sample = `John
John 3:16 For God so loved the world.
`

var john316 = corpus.Verse{Book: "john", Chapter: 3, Verse: 16, Text: "For God so loved the world."}

func openTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := OpenTracker(context.Background(), filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func newService() *service.Service {
	p := source.ProviderFunc(func(ctx context.Context, id string) (string, error) {
		return sample, nil
	})
	return service.New(p, service.WithRand(rand.New(rand.NewPCG(3, 4))))
}

func TestTrackerRecord(t *testing.T) {
	ctx := context.Background()
	tr := openTracker(t)
	day := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	ref := progress.Ref{Book: "john", Chapter: 3, Verse: 16}

	_, ok, err := tr.Get(ctx, "KJV", ref)
	require.NoError(t, err)
	assert.False(t, ok)

	for range progress.MaxMastery + 1 {
		_, err := tr.Record(ctx, "KJV", ref, true)
		require.NoError(t, err)
	}
	p, err := tr.Record(ctx, "KJV", ref, false)
	require.NoError(t, err)

	got, ok, err := tr.Get(ctx, "KJV", ref)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, progress.MaxMastery+2, got.Attempts)
	assert.Equal(t, progress.MaxMastery+1, got.CorrectGuesses)
	assert.Equal(t, progress.MaxMastery, got.MasteryLevel)
	assert.True(t, got.Completed)
	assert.Equal(t, day, got.LastPracticed)

	_, ok, err = tr.Get(ctx, "LSG", ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrackerMemorizedListReset(t *testing.T) {
	ctx := context.Background()
	tr := openTracker(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	a := progress.Ref{Book: "gen", Chapter: 1, Verse: 1}
	b := progress.Ref{Book: "john", Chapter: 3, Verse: 16}

	p, err := tr.ToggleMemorized(ctx, "KJV", a)
	require.NoError(t, err)
	assert.True(t, p.Memorized)
	assert.False(t, p.Started)

	p, err = tr.ToggleMemorized(ctx, "KJV", a)
	require.NoError(t, err)
	assert.False(t, p.Memorized)

	day = day.Add(time.Hour)
	_, err = tr.Record(ctx, "KJV", b, false)
	require.NoError(t, err)

	list, err := tr.List(ctx, "KJV")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].Ref)
	assert.Equal(t, progress.Started, list[0].Status())
	assert.Equal(t, a, list[1].Ref)

	require.NoError(t, tr.Reset(ctx, "KJV"))
	list, err = tr.List(ctx, "KJV")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"verse", "LINES", " reference "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseMode("chapter")
	assert.Error(t, err)
}

func TestSessionRun(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		input   string
		correct bool
		output  string
	}{
		{"verse after hint", ModeVerse, "?\nfor god so loved the world\n", true, "Correct"},
		{"verse retry", ModeVerse, "for cod so loved the\nFor God so loved the world\n", true, "Not quite"},
		{"verse give up", ModeVerse, "\n", false, "Answer: For God so loved the world."},
		{"lines", ModeLines, "for god so\nloved the wrld\n", true, "ok"},
		{"lines wrong", ModeLines, "nothing\nloved the world\n", false, "expected: For God so"},
		{"reference", ModeReference, "John 3:16\n", true, "Correct"},
		{"reference wrong", ModeReference, "Genesis 1:1\n", false, "It was John 3:16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := NewSession(newService(), "KJV", strings.NewReader(tt.input), &out,
				WithTracker(openTracker(t)),
				WithLanguage(books.English),
				WithLines(3))

			res, err := s.Run(context.Background(), john316, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.correct, res.Correct)
			assert.Contains(t, out.String(), tt.output)

			require.NotNil(t, res.Progress)
			assert.Equal(t, 1, res.Progress.Attempts)
			assert.True(t, res.Progress.Started)
		})
	}
}

func TestSessionEOF(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(newService(), "KJV", strings.NewReader(""), &out)
	_, err := s.Run(context.Background(), john316, ModeVerse)
	assert.ErrorIs(t, err, io.EOF)
}
