package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/service"
	"github.com/FocuswithJustin/versemem/internal/source"
)

const testText = `Genesis
Gen 1:1 In the beginning God created the heaven and the earth.
Gen 1:2 And the earth was without form, and void.
John
John 3:16 For God so loved the world.
`

func testProvider() source.Provider {
	return source.ProviderFunc(func(ctx context.Context, id string) (string, error) {
		if id == "KJV" {
			return testText, nil
		}
		return "", verrors.NewSourceUnavailable(id, "test", verrors.NewNotFound("source", id))
	})
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	svc := service.New(testProvider(), service.WithRand(rand.New(rand.NewPCG(7, 7))))
	srv, err := NewServer(svc, cfg, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return srv, ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func doJSON(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestNavigationEndpoints(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	t.Run("books", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books?lang=fr", nil)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, env.Success)
		assert.Equal(t, 2, env.Meta.Total)

		var list []service.BookInfo
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Equal(t, "gen", list[0].Key)
		assert.Equal(t, "Genèse", list[0].DisplayName)
		assert.Equal(t, "Jean", list[1].DisplayName)
	})

	t.Run("chapters", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/john/chapters", nil)
		require.Equal(t, http.StatusOK, status)
		var chapters []int
		require.NoError(t, json.Unmarshal(env.Data, &chapters))
		assert.Equal(t, []int{1, 2, 3}, chapters)
	})

	t.Run("unknown book", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/exod/chapters", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("verses", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/gen/chapters/1/verses", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 2, env.Meta.Total)
	})

	t.Run("verse", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/john/chapters/3/verses/16", nil)
		require.Equal(t, http.StatusOK, status)
		var v VerseInfo
		require.NoError(t, json.Unmarshal(env.Data, &v))
		assert.Equal(t, "For God so loved the world.", v.Text)
		assert.Equal(t, "John 3:16", v.Reference)
	})

	t.Run("missing verse", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/john/chapters/3/verses/17", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("bad chapter", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books/gen/chapters/x/verses", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("source unavailable", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/LSG/books", nil)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "SOURCE_UNAVAILABLE", env.Error.Code)
	})

	t.Run("random new testament", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/random?testament=new", nil)
		require.Equal(t, http.StatusOK, status)
		var v VerseInfo
		require.NoError(t, json.Unmarshal(env.Data, &v))
		assert.Equal(t, "john", v.Book)
	})

	t.Run("random bad testament", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/random?testament=middle", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("lookup", func(t *testing.T) {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/lookup?q=Genesis+1:1-2", nil)
		require.Equal(t, http.StatusOK, status)
		var body struct {
			Query  string `json:"query"`
			Verses []struct {
				Verse int `json:"verse"`
			} `json:"verses"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, "Genesis 1:1-2", body.Query)
		assert.Len(t, body.Verses, 2)
	})

	t.Run("lookup empty", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/lookup", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRootHealthAndNotFound(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	status, env := doJSON(t, http.MethodGet, ts.URL+"/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	require.Equal(t, http.StatusOK, status)
	var h HealthInfo
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "healthy", h.Status)
	assert.NotEmpty(t, h.SQLiteDriver)

	status, env = doJSON(t, http.MethodGet, ts.URL+"/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestCheckEndpoint(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	tests := []struct {
		name      string
		body      any
		status    int
		wantMatch bool
	}{
		{"exact text", CheckRequest{Answer: "for god so loved the world", Reference: "For God so loved the world."}, http.StatusOK, true},
		{"by verse", CheckRequest{Answer: "For God so lovd the world", SourceID: "KJV", Book: "john", Chapter: 3, Verse: 16}, http.StatusOK, true},
		{"wrong", CheckRequest{Answer: "nothing alike", Reference: "For God so loved the world."}, http.StatusOK, false},
		{"missing reference", CheckRequest{Answer: "x"}, http.StatusBadRequest, false},
		{"missing verse", CheckRequest{Answer: "x", SourceID: "KJV", Book: "john", Chapter: 3, Verse: 99}, http.StatusNotFound, false},
		{"bad tolerance", map[string]any{"answer": "x", "reference": "y", "options": map[string]any{"tolerance_level": 2}}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doJSON(t, http.MethodPost, ts.URL+"/check", tt.body)
			require.Equal(t, tt.status, status)
			if status != http.StatusOK {
				assert.False(t, env.Success)
				return
			}
			var res CheckResponse
			require.NoError(t, json.Unmarshal(env.Data, &res))
			assert.Equal(t, tt.wantMatch, res.IsMatch)
		})
	}

	t.Run("strict options and diagnose", func(t *testing.T) {
		f := false
		one := 1.0
		status, env := doJSON(t, http.MethodPost, ts.URL+"/check", CheckRequest{
			Answer:    "For God so lovd the world",
			Reference: "For God so loved the world.",
			Options:   &CheckOptions{ToleranceLevel: &one, AllowCharacterSwaps: &f, AllowSimilarChars: &f},
			Diagnose:  true,
		})
		require.Equal(t, http.StatusOK, status)
		var res CheckResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.False(t, res.IsMatch)
		assert.NotEmpty(t, res.Feedback)
	})

	t.Run("invalid json", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/check", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCheckReferenceEndpoint(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	status, env := doJSON(t, http.MethodPost, ts.URL+"/check/reference", ReferenceCheckRequest{
		SourceID: "KJV", Book: "gen", Chapter: 1, Verse: 2, Answer: "Genesis 1:2",
	})
	require.Equal(t, http.StatusOK, status)
	var res ReferenceCheckResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Correct)
	assert.Equal(t, "Genesis 1:2", res.Expected)

	status, env = doJSON(t, http.MethodPost, ts.URL+"/check/reference", ReferenceCheckRequest{
		SourceID: "KJV", Book: "gen", Chapter: 1, Verse: 2, Answer: "Genèse 2 1", Lang: "fr",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Correct)
	assert.Equal(t, "Genèse 1:2", res.Expected)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/check/reference", ReferenceCheckRequest{Answer: "x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "0123456789abcdef"
	_, ts := newTestServer(t, cfg)

	status, _ := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/KJV/books", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/sources/KJV/books", nil)
	req.Header.Set("X-API-Key", "wrong-key-wrong-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("X-API-Key", cfg.APIKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "short"
	_, err := NewServer(service.New(testProvider()), cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Port = -1
	assert.Error(t, cfg.Validate())
}

func TestCORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://app.example.org"}
	_, ts := newTestServer(t, cfg)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/check", nil)
	req.Header.Set("Origin", "https://app.example.org")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.org", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, open := newTestServer(t, DefaultConfig())
	resp, err = http.Get(open.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitBurst = 2
	_, ts := newTestServer(t, cfg)

	var codes []int
	for range 3 {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.9"},
		{"bad forwarded", map[string]string{"X-Forwarded-For": "nonsense"}, "10.0.0.2:1", "10.0.0.2"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:1", "198.51.100.4"},
		{"garbage", nil, "garbage", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, isOriginAllowed("", nil))
	assert.True(t, isOriginAllowed("https://a.example.org", []string{"*"}))
	assert.True(t, isOriginAllowed("https://a.example.org", []string{"*.example.org"}))
	assert.False(t, isOriginAllowed("https://example.com", []string{"*.example.org"}))
	assert.False(t, isOriginAllowed("", []string{"https://a.example.org"}))
}

func TestInvalidSourceID(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	status, env := doJSON(t, http.MethodGet, ts.URL+"/sources/-rf/books", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

type fakeDownloader struct {
	mu      sync.Mutex
	release chan struct{}
	fail    string
	got     [][]string
}

func (d *fakeDownloader) Download(ctx context.Context, ids []string, progress func(source.Progress)) error {
	d.mu.Lock()
	d.got = append(d.got, ids)
	d.mu.Unlock()

	for _, id := range ids {
		progress(source.Progress{SourceID: id, Status: source.StatusDownloading})
		if d.release != nil {
			select {
			case <-d.release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if id == d.fail {
			err := verrors.NewSourceUnavailable(id, "test", verrors.ErrNotFound)
			progress(source.Progress{SourceID: id, Status: source.StatusFailed, Error: err.Error()})
			return err
		}
		progress(source.Progress{SourceID: id, Percent: 100, Status: source.StatusCompleted})
	}
	return nil
}

func waitJob(t *testing.T, srv *Server, id string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = srv.jobs.Get(id)
		return ok && job.done()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestDownloads(t *testing.T) {
	dl := &fakeDownloader{fail: "BAD"}
	srv, ts := newTestServer(t, DefaultConfig(), WithDownloader(dl))

	status, env := doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"KJV", "LSG"}})
	require.Equal(t, http.StatusAccepted, status)
	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, []string{"KJV", "LSG"}, job.Sources)

	done := waitJob(t, srv, job.ID)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, "completed", done.States["LSG"])

	status, env = doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"BAD"}})
	require.Equal(t, http.StatusAccepted, status)
	require.NoError(t, json.Unmarshal(env.Data, &job))
	failed := waitJob(t, srv, job.ID)
	assert.Equal(t, JobStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "BAD")

	status, env = doJSON(t, http.MethodGet, ts.URL+"/downloads", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, env.Meta.Total)

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/downloads/"+job.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/downloads/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/downloads/"+job.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"../etc"}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

// lockedBuffer guards log output written from job goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDownloadCompletionLogged(t *testing.T) {
	var out lockedBuffer
	logging.InitLoggerWithWriter(&out, logging.LevelInfo, logging.FormatJSON)
	t.Cleanup(func() { logging.InitLogger(logging.LevelInfo, logging.FormatJSON) })

	srv, ts := newTestServer(t, DefaultConfig(), WithDownloader(&fakeDownloader{}))
	status, env := doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"KJV", "LSG"}})
	require.Equal(t, http.StatusAccepted, status)
	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.Equal(t, JobStatusCompleted, waitJob(t, srv, job.ID).Status)

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var m map[string]any
		if json.Unmarshal([]byte(line), &m) == nil && m["msg"] == "download job completed" {
			entry = m
		}
	}
	require.NotNil(t, entry, "completion log line missing:\n%s", out.String())
	assert.Equal(t, job.ID, entry["job_id"])
	assert.EqualValues(t, 2, entry["sources"])
}

func TestCancelDownload(t *testing.T) {
	dl := &fakeDownloader{release: make(chan struct{})}
	srv, ts := newTestServer(t, DefaultConfig(), WithDownloader(dl))

	status, env := doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"KJV"}})
	require.Equal(t, http.StatusAccepted, status)
	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/downloads/"+job.ID, nil)
	require.Equal(t, http.StatusOK, status)

	done := waitJob(t, srv, job.ID)
	assert.Equal(t, JobStatusCancelled, done.Status)
}

func TestDownloadsNotConfigured(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	status, env := doJSON(t, http.MethodPost, ts.URL+"/downloads", DownloadRequest{Sources: []string{"KJV"}})
	assert.Equal(t, http.StatusNotImplemented, status)
	assert.Equal(t, "NOT_IMPLEMENTED", env.Error.Code)
}

func TestSourcesEndpoint(t *testing.T) {
	store, err := source.OpenStore(context.Background(), t.TempDir()+"/sources.db", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	_, err = store.Put(context.Background(), "custom-1", testText)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "KJV", testText)
	require.NoError(t, err)

	_, ts := newTestServer(t, DefaultConfig(),
		WithRegistry(source.NewRegistry("https://example.org", nil)),
		WithStore(store))

	status, env := doJSON(t, http.MethodGet, ts.URL+"/sources", nil)
	require.Equal(t, http.StatusOK, status)

	var infos []SourceInfo
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, len(source.DefaultSources)+1)

	byID := make(map[string]SourceInfo)
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.True(t, byID["KJV"].Downloaded)
	assert.Equal(t, "en", byID["KJV"].Language)
	assert.False(t, byID["LSG"].Downloaded)
	assert.True(t, byID["custom-1"].Downloaded)
	assert.Equal(t, source.Fingerprint(testText), byID["custom-1"].Fingerprint)
}
