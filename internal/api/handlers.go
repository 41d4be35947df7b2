package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/corpus"
	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/matcher"
	"github.com/FocuswithJustin/versemem/core/sqlite"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/source"
	"github.com/FocuswithJustin/versemem/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Uptime        string  `json:"uptime"`
	CachedSources int     `json:"cached_sources"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`
	SQLiteDriver  string  `json:"sqlite_driver"`
}

// SourceInfo describes a known or stored source.
type SourceInfo struct {
	source.Entry
	Downloaded   bool   `json:"downloaded"`
	Size         int    `json:"size,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	DownloadedAt string `json:"downloaded_at,omitempty"`
}

// VerseInfo is a verse with its book's display name.
type VerseInfo struct {
	corpus.Verse
	BookName  string `json:"book_name"`
	Reference string `json:"reference"`
}

// CheckOptions overrides individual matcher options.
type CheckOptions struct {
	ToleranceLevel      *float64 `json:"tolerance_level,omitempty"`
	AllowCharacterSwaps *bool    `json:"allow_character_swaps,omitempty"`
	AllowSimilarChars   *bool    `json:"allow_similar_chars,omitempty"`
}

// CheckRequest is the body of POST /check and of each /ws/check message.
// The correct text is Reference, or the verse named by SourceID, Book,
// Chapter and Verse.
type CheckRequest struct {
	Answer    string        `json:"answer"`
	Reference string        `json:"reference,omitempty"`
	SourceID  string        `json:"source_id,omitempty"`
	Book      string        `json:"book,omitempty"`
	Chapter   int           `json:"chapter,omitempty"`
	Verse     int           `json:"verse,omitempty"`
	Options   *CheckOptions `json:"options,omitempty"`
	Diagnose  bool          `json:"diagnose,omitempty"`
}

// CheckResponse is the verdict for a CheckRequest.
type CheckResponse struct {
	matcher.MatchResult
	Feedback []matcher.WordFeedback `json:"feedback,omitempty"`
}

// ReferenceCheckRequest is the body of POST /check/reference.
type ReferenceCheckRequest struct {
	SourceID string `json:"source_id"`
	Book     string `json:"book"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	Answer   string `json:"answer"`
	Lang     string `json:"lang,omitempty"`
}

// ReferenceCheckResponse is the verdict for a ReferenceCheckRequest.
type ReferenceCheckResponse struct {
	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
}

// DownloadRequest is the body of POST /downloads.
type DownloadRequest struct {
	Sources []string `json:"sources"`
}

var startTime = time.Now()

func (srv *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"name":    "versemem API",
		"version": srv.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /sources",
			"GET /sources/{id}/books",
			"GET /sources/{id}/books/{book}/chapters",
			"GET /sources/{id}/books/{book}/chapters/{chapter}/verses",
			"GET /sources/{id}/books/{book}/chapters/{chapter}/verses/{verse}",
			"GET /sources/{id}/random",
			"GET /sources/{id}/lookup?q=",
			"POST /check",
			"POST /check/reference",
			"POST /downloads",
			"GET /downloads/{id}",
			"DELETE /downloads/{id}",
			"WS /ws/check",
			"WS /ws/progress",
		},
	})
}

func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := srv.svc.CacheStats()
	respond(w, http.StatusOK, HealthInfo{
		Status:        "healthy",
		Version:       srv.cfg.Version,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
		CachedSources: stats.Size,
		CacheHitRatio: stats.HitRatio(),
		SQLiteDriver:  sqlite.DriverName(),
	})
}

func (srv *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	var infos []SourceInfo
	seen := make(map[string]bool)
	if srv.registry != nil {
		for _, e := range srv.registry.Entries() {
			infos = append(infos, SourceInfo{Entry: e})
			seen[e.ID] = true
		}
	}

	if srv.store != nil {
		recs, err := srv.store.List(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		byID := make(map[string]source.Record, len(recs))
		for _, rec := range recs {
			byID[rec.ID] = rec
			if !seen[rec.ID] {
				infos = append(infos, SourceInfo{Entry: source.Entry{ID: rec.ID}})
			}
		}
		for i := range infos {
			if rec, ok := byID[infos[i].ID]; ok {
				infos[i].Downloaded = true
				infos[i].Size = rec.Size
				infos[i].Fingerprint = rec.Fingerprint
				infos[i].DownloadedAt = rec.DownloadedAt.Format(time.RFC3339)
			}
		}
	}

	if infos == nil {
		infos = []SourceInfo{}
	}
	respondList(w, infos, len(infos))
}

func (srv *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}
	list, err := srv.svc.BookList(r.Context(), id, books.Language(r.URL.Query().Get("lang")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, list, len(list))
}

func (srv *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}
	chapters, err := srv.svc.GetChapters(r.Context(), id, r.PathValue("book"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, chapters, len(chapters))
}

func (srv *Server) handleVerses(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}
	chapter, ok := intParam(w, r, "chapter")
	if !ok {
		return
	}
	verses, err := srv.svc.GetVerses(r.Context(), id, r.PathValue("book"), chapter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, verses, len(verses))
}

func (srv *Server) handleVerse(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}
	chapter, ok := intParam(w, r, "chapter")
	if !ok {
		return
	}
	number, ok := intParam(w, r, "verse")
	if !ok {
		return
	}

	v, found, err := srv.svc.GetVerse(r.Context(), id, r.PathValue("book"), chapter, number)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Verse not found")
		return
	}
	srv.respondVerse(w, r, id, v)
}

func (srv *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}

	var testament books.Testament
	if raw := r.URL.Query().Get("testament"); raw != "" {
		t, ok := books.ParseTestament(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "testament must be old or new")
			return
		}
		testament = t
	}

	v, found, err := srv.svc.GetRandomVerse(r.Context(), id, testament)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Source has no verses")
		return
	}
	srv.respondVerse(w, r, id, v)
}

func (srv *Server) respondVerse(w http.ResponseWriter, r *http.Request, sourceID string, v corpus.Verse) {
	name, err := srv.svc.GetBookName(r.Context(), sourceID, v.Book, books.Language(r.URL.Query().Get("lang")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, VerseInfo{
		Verse:     v,
		BookName:  name,
		Reference: fmt.Sprintf("%s %d:%d", name, v.Chapter, v.Verse),
	})
}

func (srv *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceParam(w, r)
	if !ok {
		return
	}
	q, verses, err := srv.svc.Lookup(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"query":  q.String(),
		"verses": verses,
	})
}

func (srv *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, apiErr := srv.check(r.Context(), req)
	if apiErr != nil {
		respondError(w, statusFor(apiErr.Code), apiErr.Code, apiErr.Message)
		return
	}
	respond(w, http.StatusOK, res)
}

// check resolves the correct text of req and matches the answer against it.
func (srv *Server) check(ctx context.Context, req CheckRequest) (CheckResponse, *APIError) {
	correct := req.Reference
	if correct == "" {
		if req.SourceID == "" || req.Book == "" {
			return CheckResponse{}, &APIError{Code: "INVALID_INPUT", Message: "reference or source_id, book, chapter and verse are required"}
		}
		if err := validation.SourceID(req.SourceID); err != nil {
			return CheckResponse{}, &APIError{Code: "INVALID_INPUT", Message: err.Error()}
		}
		v, found, err := srv.svc.GetVerse(ctx, req.SourceID, req.Book, req.Chapter, req.Verse)
		if err != nil {
			_, code, msg := classify(err)
			return CheckResponse{}, &APIError{Code: code, Message: msg}
		}
		if !found {
			return CheckResponse{}, &APIError{Code: "NOT_FOUND", Message: "Verse not found"}
		}
		correct = v.Text
	}

	var opts []matcher.Option
	if o := req.Options; o != nil {
		if o.ToleranceLevel != nil {
			if *o.ToleranceLevel <= 0 || *o.ToleranceLevel > 1 {
				return CheckResponse{}, &APIError{Code: "INVALID_INPUT", Message: "tolerance_level must be in (0, 1]"}
			}
			opts = append(opts, matcher.WithTolerance(*o.ToleranceLevel))
		}
		if o.AllowCharacterSwaps != nil {
			opts = append(opts, matcher.WithCharacterSwaps(*o.AllowCharacterSwaps))
		}
		if o.AllowSimilarChars != nil {
			opts = append(opts, matcher.WithSimilarChars(*o.AllowSimilarChars))
		}
	}

	res := CheckResponse{MatchResult: srv.svc.CheckDyslexiaFriendlyMatch(ctx, req.Answer, correct, opts...)}
	if req.Diagnose {
		res.Feedback = matcher.Diagnose(req.Answer, correct)
	}
	return res, nil
}

func (srv *Server) handleCheckReference(w http.ResponseWriter, r *http.Request) {
	var req ReferenceCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SourceID == "" || req.Book == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "source_id, book, chapter and verse are required")
		return
	}
	if err := validation.SourceID(req.SourceID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	v, found, err := srv.svc.GetVerse(r.Context(), req.SourceID, req.Book, req.Chapter, req.Verse)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Verse not found")
		return
	}

	lang := books.Language(req.Lang)
	correct, err := srv.svc.CheckReference(r.Context(), req.SourceID, req.Answer, v, lang)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	name, err := srv.svc.GetBookName(r.Context(), req.SourceID, v.Book, lang)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, ReferenceCheckResponse{
		Correct:  correct,
		Expected: fmt.Sprintf("%s %d:%d", name, v.Chapter, v.Verse),
	})
}

func (srv *Server) handleCreateDownload(w http.ResponseWriter, r *http.Request) {
	if srv.downloader == nil {
		respondError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Downloads are not configured")
		return
	}
	var req DownloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Sources) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "sources is required")
		return
	}
	for _, id := range req.Sources {
		if err := validation.SourceID(id); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
	}

	job := srv.jobs.Create(req.Sources)
	srv.runDownload(job)

	snap, _ := srv.jobs.Get(job.ID)
	respond(w, http.StatusAccepted, snap)
}

func (srv *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	jobs := srv.jobs.List()
	respondList(w, jobs, len(jobs))
}

func (srv *Server) handleGetDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := srv.jobs.Get(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}
	respond(w, http.StatusOK, job)
}

func (srv *Server) handleCancelDownload(w http.ResponseWriter, r *http.Request) {
	if err := srv.jobs.Cancel(r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
}

func sourceParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := validation.SourceID(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return "", false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n < 1 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	return true
}

// classify maps an error to an HTTP status, error code and message.
func classify(err error) (int, string, string) {
	switch {
	case verrors.Is(err, verrors.ErrSourceUnavailable):
		return http.StatusBadGateway, "SOURCE_UNAVAILABLE", err.Error()
	case verrors.Is(err, verrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case verrors.Is(err, verrors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case verrors.Is(err, verrors.ErrUnsupported):
		return http.StatusNotImplemented, "NOT_IMPLEMENTED", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL", "Internal server error"
	}
}

func statusFor(code string) int {
	switch code {
	case "SOURCE_UNAVAILABLE":
		return http.StatusBadGateway
	case "NOT_FOUND":
		return http.StatusNotFound
	case "INVALID_INPUT", "INVALID_JSON":
		return http.StatusBadRequest
	case "NOT_IMPLEMENTED":
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	respondError(w, status, code, msg)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Total: total, Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
