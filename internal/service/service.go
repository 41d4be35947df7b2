// Package service exposes the corpus navigation and answer-checking
// operations used by the CLI and the HTTP API. Corpora are built on first
// use from a source.Provider and memoized in a cache.CorpusCache.
package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/cache"
	"github.com/FocuswithJustin/versemem/core/corpus"
	"github.com/FocuswithJustin/versemem/core/matcher"
	"github.com/FocuswithJustin/versemem/core/reference"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/source"
)

// Service answers questions about sources. It is safe for concurrent use.
type Service struct {
	provider   source.Provider
	cache      *cache.CorpusCache
	catalog    *books.Catalog
	testaments *books.TestamentClassifier
	language   books.Language

	optsMu    sync.RWMutex
	matchOpts []matcher.Option

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithCache replaces the default corpus cache.
func WithCache(c *cache.CorpusCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithCatalog sets the book catalog used for display names.
func WithCatalog(c *books.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithTestaments sets the testament heuristic.
func WithTestaments(tc *books.TestamentClassifier) Option {
	return func(s *Service) { s.testaments = tc }
}

// WithLanguage sets the default display language.
func WithLanguage(lang books.Language) Option {
	return func(s *Service) { s.language = lang }
}

// WithMatchOptions sets the matcher options applied before per-call ones.
func WithMatchOptions(opts ...matcher.Option) Option {
	return func(s *Service) { s.matchOpts = opts }
}

// WithRand sets the random source for sampling and hints.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// New creates a Service reading sources from provider.
func New(provider source.Provider, opts ...Option) *Service {
	s := &Service{
		provider:   provider,
		cache:      cache.NewDefaultCorpusCache(),
		catalog:    books.DefaultCatalog(),
		testaments: books.DefaultTestamentClassifier(),
		language:   books.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return s
}

// Language returns the default display language.
func (s *Service) Language() books.Language {
	return s.language
}

// Corpus returns the parsed corpus for sourceID, building it on first use.
// A provider failure is returned and nothing is cached. A source that
// yields no books is cached as an empty corpus.
func (s *Service) Corpus(ctx context.Context, sourceID string) (*corpus.Corpus, error) {
	corp, _, err := s.cache.GetOrBuild(sourceID, func() (*corpus.Corpus, error) {
		text, err := s.provider.Fetch(ctx, sourceID)
		if err != nil {
			logging.SourceError(ctx, sourceID, "fetch", err)
			return nil, err
		}

		start := time.Now()
		corp, stats := corpus.Build(sourceID, text,
			corpus.WithCatalog(s.catalog),
			corpus.WithTestaments(s.testaments))
		logging.CorpusBuilt(ctx, sourceID, stats.Books, stats.Verses, stats.Matched, stats.Skipped, time.Since(start))
		for _, line := range stats.SkippedSamples {
			logging.DebugContext(ctx, "skipped line", "source_id", sourceID, "line", line)
		}
		if corp.Empty() {
			logging.WarnContext(ctx, "source produced no books", "source_id", sourceID, "lines", stats.Lines)
		}
		return corp, nil
	})
	return corp, err
}

// Invalidate drops the cached corpus for sourceID.
func (s *Service) Invalidate(sourceID string) {
	s.cache.Remove(sourceID)
}

// CacheStats reports corpus cache statistics.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// GetBooks returns the book keys of sourceID in source order.
func (s *Service) GetBooks(ctx context.Context, sourceID string) ([]string, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return corp.BookKeys(), nil
}

// BookInfo is a book with its resolved display name and testament.
type BookInfo struct {
	corpus.BookRecord
	DisplayName string          `json:"display_name"`
	Testament   books.Testament `json:"testament"`
}

// BookList returns every book of sourceID with names in lang. An empty
// lang selects the service default.
func (s *Service) BookList(ctx context.Context, sourceID string, lang books.Language) ([]BookInfo, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	lang = s.lang(lang)

	recs := corp.Books()
	out := make([]BookInfo, 0, len(recs))
	for _, b := range recs {
		out = append(out, BookInfo{
			BookRecord:  b,
			DisplayName: corp.DisplayName(b.Key, lang),
			Testament:   corp.Testament(b.Key),
		})
	}
	return out, nil
}

// GetChapters returns 1..ChapterCount for bookKey. An unknown book is a
// NotFoundError.
func (s *Service) GetChapters(ctx context.Context, sourceID, bookKey string) ([]int, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return corp.ListChapters(bookKey)
}

// GetVerses returns the verses of one chapter, empty when none exist.
func (s *Service) GetVerses(ctx context.Context, sourceID, bookKey string, chapter int) ([]corpus.Verse, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	verses := corp.Verses(bookKey, chapter)
	if verses == nil {
		verses = []corpus.Verse{}
	}
	return verses, nil
}

// GetVerse returns one verse; ok is false when it does not exist.
func (s *Service) GetVerse(ctx context.Context, sourceID, bookKey string, chapter, verse int) (v corpus.Verse, ok bool, err error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return corpus.Verse{}, false, err
	}
	v, ok = corp.GetVerse(bookKey, chapter, verse)
	return v, ok, nil
}

// GetBookName returns the display name of bookKey in lang, or the key
// itself when the book is unknown.
func (s *Service) GetBookName(ctx context.Context, sourceID, bookKey string, lang books.Language) (string, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return "", err
	}
	return corp.DisplayName(bookKey, s.lang(lang)), nil
}

// GetRandomVerse samples a verse, optionally restricted to a testament.
// An empty testament samples from every book.
func (s *Service) GetRandomVerse(ctx context.Context, sourceID string, testament books.Testament) (corpus.Verse, bool, error) {
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return corpus.Verse{}, false, err
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	v, ok := corp.RandomVerse(s.rng, testament)
	return v, ok, nil
}

// Lookup parses a reference such as "1 Cor 13:4-7" and returns the verses
// it names.
func (s *Service) Lookup(ctx context.Context, sourceID, query string) (*reference.Query, []corpus.Verse, error) {
	q, err := reference.Parse(query)
	if err != nil {
		return nil, nil, err
	}
	corp, err := s.Corpus(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	verses, err := q.Select(corp)
	if err != nil {
		return q, nil, err
	}
	return q, verses, nil
}

// CheckDyslexiaFriendlyMatch compares a typed answer with the verse text
// using the service's matcher options overridden by opts.
func (s *Service) CheckDyslexiaFriendlyMatch(ctx context.Context, userAnswer, correctAnswer string, opts ...matcher.Option) matcher.MatchResult {
	s.optsMu.RLock()
	all := make([]matcher.Option, 0, len(s.matchOpts)+len(opts))
	all = append(all, s.matchOpts...)
	s.optsMu.RUnlock()
	all = append(all, opts...)

	res := matcher.CheckMatch(userAnswer, correctAnswer, all...)
	logging.MatchChecked(ctx, "verse", res.Similarity, res.IsMatch)
	return res
}

// SetMatchOptions replaces the default matcher options, e.g. after a
// configuration reload.
func (s *Service) SetMatchOptions(opts ...matcher.Option) {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	s.matchOpts = opts
}

// CheckReference judges a guess of where verse v is found. The book may be
// named by its key or by its display name in lang.
func (s *Service) CheckReference(ctx context.Context, sourceID, answer string, v corpus.Verse, lang books.Language) (bool, error) {
	name, err := s.GetBookName(ctx, sourceID, v.Book, lang)
	if err != nil {
		return false, err
	}

	ok := matcher.CheckReferenceGuess(answer, matcher.ReferenceTarget{
		BookKey:  v.Book,
		BookName: name,
		Chapter:  v.Chapter,
		Verse:    v.Verse,
	})
	score := 0.0
	if ok {
		score = 1
	}
	logging.MatchChecked(ctx, "reference", score, ok)
	return ok, nil
}

// RevealHint picks a hidden word of text to reveal, or -1 when every word
// is revealed.
func (s *Service) RevealHint(text string, revealed map[int]bool) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return matcher.RevealHint(text, revealed, s.rng)
}

func (s *Service) lang(lang books.Language) books.Language {
	if lang == "" {
		return s.language
	}
	return lang
}
