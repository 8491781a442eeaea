package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ttuhina/MuseMe/internal/adapters/audiodb"
	"github.com/ttuhina/MuseMe/internal/adapters/lyricsovh"
	"github.com/ttuhina/MuseMe/internal/adapters/static"
	"github.com/ttuhina/MuseMe/internal/adapters/upstream"
	"github.com/ttuhina/MuseMe/internal/core/domain"
	"github.com/ttuhina/MuseMe/internal/core/services"
)

// --- Mocks ---

// Handler depends on the concrete *services.Aggregator, so tests build a
// real one around mock providers.

type mockLyrics struct {
	lyrics string
	ok     bool

	calledArtist string
	calledSong   string
}

func (m *mockLyrics) FetchLyrics(ctx context.Context, artist, song string) (string, bool) {
	m.calledArtist, m.calledSong = artist, song
	return m.lyrics, m.ok
}

type mockArtists struct {
	info *domain.ArtistInfo
	ok   bool
}

func (m *mockArtists) FetchArtistInfo(ctx context.Context, artist string) (*domain.ArtistInfo, bool) {
	return m.info, m.ok
}

type panicHandler struct{}

func (panicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	panic("asset handler exploded")
}

func newTestHandler(t *testing.T, lyrics *mockLyrics, artists *mockArtists, assets http.Handler) *Handler {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	svc := services.NewAggregator(lyrics, artists, logger)
	return NewHandler(svc, assets, logger)
}

// --- Tests ---

func TestHandler_Search(t *testing.T) {
	queen := &domain.ArtistInfo{Name: "Queen", Biography: "British rock band.", Genre: "Rock"}

	tests := []struct {
		name           string
		path           string
		lyrics         mockLyrics
		artists        mockArtists
		expectedStatus int
		expectedBody   []string
		wantArtist     string
		wantSong       string
	}{
		{
			name:           "Success: both lookups populated",
			path:           "/api/search/Queen/Bohemian%20Rhapsody",
			lyrics:         mockLyrics{lyrics: "Is this the real life?", ok: true},
			artists:        mockArtists{info: queen, ok: true},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"success":true`, `"lyrics":"Is this the real life?"`, `"genre":"Rock"`},
			wantArtist:     "Queen",
			wantSong:       "Bohemian Rhapsody",
		},
		{
			name:           "Success: nothing found is still 200 with nulls",
			path:           "/api/search/Nobody/Nothing",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"success":true`, `"lyrics":null`, `"artistInfo":null`},
			wantArtist:     "Nobody",
			wantSong:       "Nothing",
		},
		{
			name:           "Success: encoded slash stays in the artist",
			path:           "/api/search/AC%2FDC/Back%20In%20Black",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"artist":"AC/DC"`},
			wantArtist:     "AC/DC",
			wantSong:       "Back In Black",
		},
		{
			name:           "Success: extra segments are ignored",
			path:           "/api/search/Queen/Innuendo/extra",
			expectedStatus: http.StatusOK,
			wantArtist:     "Queen",
			wantSong:       "Innuendo",
		},
		{
			name:           "Bad Request: only one segment",
			path:           "/api/search/onlyonepart",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{`"success":false`, `"error":"Invalid API path"`},
		},
		{
			name:           "Bad Request: empty song segment",
			path:           "/api/search/Queen/",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{`"error":"Invalid API path"`},
		},
		{
			name:           "Bad Request: empty artist segment",
			path:           "/api/search//Innuendo",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{`"error":"Invalid API path"`},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &tt.lyrics, &tt.artists, nil)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("Content-Type: got %q, want application/json", got)
			}
			for _, want := range tt.expectedBody {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("expected body to contain %q, got %q", want, rec.Body.String())
				}
			}
			if tt.wantArtist != "" {
				if tt.lyrics.calledArtist != tt.wantArtist || tt.lyrics.calledSong != tt.wantSong {
					t.Errorf("aggregated query: got %q/%q, want %q/%q", tt.lyrics.calledArtist, tt.lyrics.calledSong, tt.wantArtist, tt.wantSong)
				}
			}
		})
	}
}

func TestParseSearchPath(t *testing.T) {
	tests := []struct {
		name    string
		escaped string
		want    domain.LookupQuery
		wantErr bool
	}{
		{name: "plain", escaped: "/api/search/Queen/Innuendo", want: domain.LookupQuery{Artist: "Queen", Song: "Innuendo"}},
		{name: "plus is literal", escaped: "/api/search/Mumford+Sons/The%20Cave", want: domain.LookupQuery{Artist: "Mumford+Sons", Song: "The Cave"}},
		{name: "unicode", escaped: "/api/search/Bj%C3%B6rk/J%C3%B3ga", want: domain.LookupQuery{Artist: "Björk", Song: "Jóga"}},
		{name: "broken escape", escaped: "/api/search/Queen%ZZ/Innuendo", wantErr: true},
		{name: "missing song", escaped: "/api/search/Queen", wantErr: true},
		{name: "wrong prefix", escaped: "/api/find/Queen/Innuendo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSearchPath(tt.escaped)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(t, &mockLyrics{}, &mockArtists{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status Code: got %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "OK" || body["message"] != "Server is running" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHandler_CORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		wantEmptyBody  bool
	}{
		{name: "preflight on API path", method: http.MethodOptions, path: "/api/search/a/b", expectedStatus: http.StatusNoContent, wantEmptyBody: true},
		{name: "preflight on any path", method: http.MethodOptions, path: "/whatever", expectedStatus: http.StatusNoContent, wantEmptyBody: true},
		{name: "headers on normal responses", method: http.MethodGet, path: "/api/health", expectedStatus: http.StatusOK},
		{name: "headers on errors", method: http.MethodGet, path: "/api/search/only", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &mockLyrics{}, &mockArtists{}, nil)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status Code: got %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.wantEmptyBody && rec.Body.Len() != 0 {
				t.Fatalf("expected empty body, got %q", rec.Body.String())
			}
			hdr := rec.Header()
			if hdr.Get("Access-Control-Allow-Origin") != "*" {
				t.Errorf("Allow-Origin: got %q", hdr.Get("Access-Control-Allow-Origin"))
			}
			if hdr.Get("Access-Control-Allow-Methods") != "GET, POST, PUT, DELETE, OPTIONS" {
				t.Errorf("Allow-Methods: got %q", hdr.Get("Access-Control-Allow-Methods"))
			}
			if hdr.Get("Access-Control-Allow-Headers") != "Content-Type, Authorization" {
				t.Errorf("Allow-Headers: got %q", hdr.Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestHandler_RequestID(t *testing.T) {
	h := newTestHandler(t, &mockLyrics{}, &mockArtists{}, nil)

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if len(rec.Header().Get("X-Request-ID")) != 36 {
			t.Fatalf("expected a uuid request id, got %q", rec.Header().Get("X-Request-ID"))
		}
	})

	t.Run("inbound id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("X-Request-ID") != "trace-123" {
			t.Fatalf("got %q, want trace-123", rec.Header().Get("X-Request-ID"))
		}
	})
}

func TestHandler_PanicReturnsGeneric500(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	svc := services.NewAggregator(&mockLyrics{}, &mockArtists{}, logger)
	h := NewHandler(svc, panicHandler{}, logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status Code: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"error":"Internal server error"`) {
		t.Fatalf("unexpected body %q", body)
	}
	if strings.Contains(body, "exploded") {
		t.Fatalf("internal detail leaked: %q", body)
	}
	found := false
	for _, e := range hook.AllEntries() {
		if e.Message == "server error" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected panic to be logged")
	}
}

func TestHandler_StaticAssets(t *testing.T) {
	base := t.TempDir()
	public := filepath.Join(base, "public")
	if err := os.MkdirAll(public, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(public, "index.html"), []byte("<h1>MuseMe</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "passwd"), []byte("root:x:0:0"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	logger, _ := logtest.NewNullLogger()
	assets, err := static.NewResponder(public, logger)
	if err != nil {
		t.Fatalf("new responder: %v", err)
	}
	h := newTestHandler(t, &mockLyrics{}, &mockArtists{}, assets)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "index at root", path: "/", expectedStatus: http.StatusOK, expectedBody: "MuseMe"},
		{name: "missing file", path: "/missing.css", expectedStatus: http.StatusNotFound, expectedBody: "File not found"},
		{name: "traversal is forbidden", path: "/../passwd", expectedStatus: http.StatusForbidden, expectedBody: "Forbidden"},
		{name: "api prefix without slash is static", path: "/api/search", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status Code: got %d, want %d", rec.Code, tt.expectedStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Fatalf("Response Body: got %q, want substring %q", rec.Body.String(), tt.expectedBody)
			}
			if strings.Contains(rec.Body.String(), "root:x") {
				t.Fatalf("file outside the asset root leaked")
			}
		})
	}
}

// TestHandler_SearchEndToEnd wires the real adapters against fake upstreams.
func TestHandler_SearchEndToEnd(t *testing.T) {
	const upstreamTimeout = 400 * time.Millisecond

	tests := []struct {
		name          string
		lyricsHandler http.HandlerFunc
		artistHandler http.HandlerFunc
		wantLyrics    bool
		wantArtist    bool
		maxLatency    time.Duration
	}{
		{
			name:          "lyrics down, artist up",
			lyricsHandler: status(http.StatusInternalServerError, "oops"),
			artistHandler: status(http.StatusOK, `{"artists":[{"strArtist":"Queen","strBiography":"Band."}]}`),
			wantArtist:    true,
		},
		{
			name:          "artist down, lyrics up",
			lyricsHandler: status(http.StatusOK, `{"lyrics":"Mama, just killed a man"}`),
			artistHandler: status(http.StatusServiceUnavailable, ""),
			wantLyrics:    true,
		},
		{
			name:          "both down",
			lyricsHandler: status(http.StatusBadGateway, ""),
			artistHandler: status(http.StatusOK, "not json at all"),
		},
		{
			name:          "lyrics not JSON",
			lyricsHandler: status(http.StatusOK, "<html>Lyrics</html>"),
			artistHandler: status(http.StatusOK, `{"artists":null}`),
		},
		{
			name:          "lyrics stalls past timeout, artist fast",
			lyricsHandler: stall(),
			artistHandler: delayed(50*time.Millisecond, `{"artists":[{"strArtist":"Queen"}]}`),
			wantArtist:    true,
			maxLatency:    upstreamTimeout + 300*time.Millisecond,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			lyricsSrv := httptest.NewServer(tt.lyricsHandler)
			defer lyricsSrv.Close()
			artistSrv := httptest.NewServer(tt.artistHandler)
			defer artistSrv.Close()

			logger, _ := logtest.NewNullLogger()
			fetcher := upstream.NewClient(&http.Client{}, logger, upstream.WithTimeout(upstreamTimeout))
			svc := services.NewAggregator(
				lyricsovh.NewClient(fetcher, lyricsSrv.URL, logger),
				audiodb.NewClient(fetcher, artistSrv.URL, logger),
				logger,
			)
			h := NewHandler(svc, nil, logger)

			start := time.Now()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/Queen/Bohemian%20Rhapsody", nil))
			elapsed := time.Since(start)

			if rec.Code != http.StatusOK {
				t.Fatalf("Status Code: got %d, want 200", rec.Code)
			}
			var got domain.AggregateResult
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !got.Success {
				t.Fatalf("expected success=true")
			}
			if (got.Lyrics != nil) != tt.wantLyrics {
				t.Errorf("lyrics present: got %v, want %v", got.Lyrics != nil, tt.wantLyrics)
			}
			if (got.ArtistInfo != nil) != tt.wantArtist {
				t.Errorf("artist info present: got %v, want %v", got.ArtistInfo != nil, tt.wantArtist)
			}
			if tt.maxLatency > 0 && elapsed > tt.maxLatency {
				t.Errorf("latency %v exceeds bound %v", elapsed, tt.maxLatency)
			}
		})
	}
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func delayed(d time.Duration, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(d)
		_, _ = w.Write([]byte(body))
	}
}

// stall blocks until the client gives up.
func stall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}
}
