package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	"quran-player/internal/api"
	"quran-player/internal/apperrors"
	"quran-player/internal/config"
	"quran-player/internal/observe"
)

type commentaryArgs struct {
	tafseerID, chapter, start, end int
}

type stubUpstream struct {
	rawFn    func(ctx context.Context, args commentaryArgs) ([]byte, error)
	versesFn func(ctx context.Context, chapter int) ([]api.Verse, error)
}

func (s *stubUpstream) RawCommentary(ctx context.Context, tafseerID, chapter, start, end int) ([]byte, error) {
	return s.rawFn(ctx, commentaryArgs{tafseerID, chapter, start, end})
}

func (s *stubUpstream) Verses(ctx context.Context, chapter int) ([]api.Verse, error) {
	return s.versesFn(ctx, chapter)
}

var ikhlas = []api.Verse{
	{ID: 1, Key: "112:1", Text: "قُلْ هُوَ ٱللَّهُ أَحَدٌ"},
	{ID: 2, Key: "112:2", Text: "اللَّهُ الصَّمَدُ"},
	{ID: 3, Key: "112:3", Text: "لَمْ يَلِدْ وَلَمْ يُولَدْ"},
}

func newRouterUnderTest(t *testing.T, up Upstream, metrics *observe.Metrics, metricsHandler http.Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	return NewRouter(NewHandler(up, nil, metrics, logger), metrics, logger, metricsHandler)
}

func performRequest(router http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, body []byte) map[string]map[string]string {
	t.Helper()
	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRouter_TafseerPassthrough(t *testing.T) {
	const upstreamBody = `{"tafseer_id":1,"tafseer_name":"التفسير الميسر","ayah_url":"/quran/2/5/","ayah_number":5,"text":"أولئك على هدى"}`
	var got commentaryArgs
	up := &stubUpstream{rawFn: func(_ context.Context, args commentaryArgs) ([]byte, error) {
		got = args
		return []byte(upstreamBody), nil
	}}

	rec := performRequest(newRouterUnderTest(t, up, nil, nil), "/api/tafseer/1/2?ayah=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, upstreamBody, rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	require.Equal(t, commentaryArgs{tafseerID: 1, chapter: 2, start: 5, end: 5}, got)
}

func TestRouter_TafseerUpstreamFailure(t *testing.T) {
	up := &stubUpstream{rawFn: func(context.Context, commentaryArgs) ([]byte, error) {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "tafseer: API returned status 503", errors.New("secret upstream detail"))
	}}

	rec := performRequest(newRouterUnderTest(t, up, nil, nil), "/api/tafseer/1/2?ayah=5", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, FetchFailed, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "secret")
}

func TestRouter_TafseerBadParams(t *testing.T) {
	up := &stubUpstream{rawFn: func(context.Context, commentaryArgs) ([]byte, error) {
		t.Fatal("upstream must not be called")
		return nil, nil
	}}
	router := newRouterUnderTest(t, up, nil, nil)

	for _, path := range []string{
		"/api/tafseer/one/2?ayah=5",
		"/api/tafseer/1/two?ayah=5",
		"/api/tafseer/1/2",
		"/api/tafseer/1/2?ayah=x",
		"/api/tafseer/1/2?ayah=0",
	} {
		rec := performRequest(router, path, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRouter_Match(t *testing.T) {
	up := &stubUpstream{versesFn: func(_ context.Context, chapter int) ([]api.Verse, error) {
		require.Equal(t, 112, chapter)
		return ikhlas, nil
	}}

	rec := performRequest(newRouterUnderTest(t, up, nil, nil), "/api/chapters/112/match?q="+url.QueryEscape("الله الصمد"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "112:2", got.VerseKey)
	require.Equal(t, "اللَّهُ الصَّمَدُ", got.Text)
	require.InDelta(t, 0, got.Score, 1e-9)
	require.Empty(t, got.Alternatives)
}

func TestRouter_MatchAlternatives(t *testing.T) {
	verses := []api.Verse{
		{Key: "1:1", Text: "الحمد لله ربي"},
		{Key: "1:2", Text: "الحمد لله رب العالمين"},
		{Key: "1:3", Text: "الرحمن الرحيم"},
		{Key: "1:4", Text: "الحمد لله رب العالمون"},
	}
	up := &stubUpstream{versesFn: func(context.Context, int) ([]api.Verse, error) { return verses, nil }}

	rec := performRequest(newRouterUnderTest(t, up, nil, nil), "/api/chapters/1/match?q="+url.QueryEscape("الحمد لله رب العالمين"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "1:2", got.VerseKey)
	require.Len(t, got.Alternatives, 1)
	require.Equal(t, "1:4", got.Alternatives[0].VerseKey)
}

func TestRouter_MatchErrors(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		verses   func(context.Context, int) ([]api.Verse, error)
		wantCode int
		wantErr  string
	}{
		{
			name:     "no match",
			path:     "/api/chapters/112/match?q="+url.QueryEscape("بسم"),
			verses:   func(context.Context, int) ([]api.Verse, error) { return ikhlas, nil },
			wantCode: http.StatusNotFound,
			wantErr:  apperrors.CodeNoMatch,
		},
		{
			name:     "missing query",
			path:     "/api/chapters/112/match",
			wantCode: http.StatusBadRequest,
			wantErr:  apperrors.CodeValidation,
		},
		{
			name:     "bad surah",
			path:     "/api/chapters/abc/match?q=x",
			wantCode: http.StatusBadRequest,
			wantErr:  apperrors.CodeValidation,
		},
		{
			name: "upstream down",
			path: "/api/chapters/112/match?q="+url.QueryEscape("الله"),
			verses: func(context.Context, int) ([]api.Verse, error) {
				return nil, apperrors.Wrap(apperrors.CodeNetwork, "verses: request failed", errors.New("refused"))
			},
			wantCode: http.StatusBadGateway,
			wantErr:  apperrors.CodeNetwork,
		},
		{
			name: "upstream timeout",
			path: "/api/chapters/112/match?q="+url.QueryEscape("الله"),
			verses: func(context.Context, int) ([]api.Verse, error) {
				return nil, apperrors.Wrap(apperrors.CodeTimeout, "verses: request failed: timed out", context.DeadlineExceeded)
			},
			wantCode: http.StatusGatewayTimeout,
			wantErr:  apperrors.CodeTimeout,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			up := &stubUpstream{versesFn: tc.verses}
			rec := performRequest(newRouterUnderTest(t, up, nil, nil), tc.path, nil)
			require.Equal(t, tc.wantCode, rec.Code)
			body := decodeErrorBody(t, rec.Body.Bytes())
			require.Equal(t, tc.wantErr, body["error"]["code"])
			require.NotEmpty(t, body["error"]["message"])
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP quran_http_request_duration_seconds"))
	})
	router := newRouterUnderTest(t, &stubUpstream{}, nil, metricsHandler)

	rec := performRequest(router, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = performRequest(router, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "quran_http_request_duration_seconds")

	rec = performRequest(newRouterUnderTest(t, &stubUpstream{}, nil, nil), "/metrics", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequestIDPreserved(t *testing.T) {
	router := newRouterUnderTest(t, &stubUpstream{}, nil, nil)

	rec := performRequest(router, "/healthz", http.Header{RequestIDHeader: {"abc-123"}})
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRouter_RecordsDurationByRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	up := &stubUpstream{rawFn: func(context.Context, commentaryArgs) ([]byte, error) { return []byte(`[]`), nil }}
	router := newRouterUnderTest(t, up, metrics, nil)
	performRequest(router, "/api/tafseer/1/2?ayah=5", nil)
	performRequest(router, "/api/tafseer/1/3?ayah=1", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var routes []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "quran.http.request.duration" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				route, _ := dp.Attributes.Value("route")
				routes = append(routes, route.AsString())
				require.Equal(t, uint64(2), dp.Count)
			}
		}
	}
	require.Equal(t, []string{"/api/tafseer/:tafseer_id/:surah"}, routes)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv := NewServer(config.HTTPConfig{Address: "127.0.0.1:0"}, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, time.Second, zaptest.NewLogger(t)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenFailure(t *testing.T) {
	srv := NewServer(config.HTTPConfig{Address: "127.0.0.1:-1"}, http.NotFoundHandler())

	err := Run(context.Background(), srv, time.Second, zaptest.NewLogger(t))
	require.Error(t, err)
}
