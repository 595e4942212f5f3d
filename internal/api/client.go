package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"quran-player/internal/apperrors"
	"quran-player/internal/observe"
)

const (
	DefaultChaptersURL = "https://mp3quran.net/api/v3/suwar"
	DefaultVersesURL   = "https://api.quran.com/api/v4/quran/verses/indopak"
	DefaultTafseerURL  = "http://api.quran-tafseer.com/tafseer"
	DefaultTimeout     = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// Upstream source names used in logs and metrics.
const (
	SourceChapters = "chapters"
	SourceVerses   = "verses"
	SourceTafseer  = "tafseer"
)

type Client struct {
	httpClient  *http.Client
	chaptersURL string
	versesURL   string
	tafseerURL  string
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *observe.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithChaptersURL(u string) Option {
	return func(c *Client) { c.chaptersURL = trimURL(u, c.chaptersURL) }
}

func WithVersesURL(u string) Option {
	return func(c *Client) { c.versesURL = trimURL(u, c.versesURL) }
}

func WithTafseerURL(u string) Option {
	return func(c *Client) { c.tafseerURL = trimURL(u, c.tafseerURL) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		chaptersURL: DefaultChaptersURL,
		versesURL:   DefaultVersesURL,
		tafseerURL:  DefaultTafseerURL,
		timeout:     DefaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.Discard()
	}
	return c
}

func trimURL(u, fallback string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return fallback
	}
	return u
}

type Chapter struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Makkia int    `json:"makkia,omitempty"`
}

type Verse struct {
	ID   int    `json:"id"`
	Key  string `json:"verse_key"`
	Text string `json:"text_indopak"`
}

type Commentary struct {
	TafseerID   int    `json:"tafseer_id"`
	TafseerName string `json:"tafseer_name"`
	AyahURL     string `json:"ayah_url"`
	AyahNumber  int    `json:"ayah_number"`
	Text        string `json:"text"`
}

type chaptersResponse struct {
	Suwar []Chapter `json:"suwar"`
}

type versesResponse struct {
	Verses []Verse `json:"verses"`
}

// Chapters lists every surah in mushaf order.
func (c *Client) Chapters(ctx context.Context) ([]Chapter, error) {
	body, err := c.get(ctx, SourceChapters, c.chaptersURL, nil)
	if err != nil {
		return nil, err
	}

	var resp chaptersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(SourceChapters, "decode chapters", err)
	}
	return resp.Suwar, nil
}

// Verses returns the chapter's verses in order.
func (c *Client) Verses(ctx context.Context, chapter int) ([]Verse, error) {
	params := url.Values{}
	params.Set("chapter_number", strconv.Itoa(chapter))

	body, err := c.get(ctx, SourceVerses, c.versesURL, params)
	if err != nil {
		return nil, err
	}

	var resp versesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(SourceVerses, "decode verses", err)
	}
	return resp.Verses, nil
}

// Commentary returns the tafseer records for a verse range.
func (c *Client) Commentary(ctx context.Context, tafseerID, chapter, verseStart, verseEnd int) ([]Commentary, error) {
	body, err := c.RawCommentary(ctx, tafseerID, chapter, verseStart, verseEnd)
	if err != nil {
		return nil, err
	}

	// A single verse is sometimes served as a bare object.
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var one Commentary
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, c.fail(SourceTafseer, "decode tafseer", err)
		}
		return withText([]Commentary{one}), nil
	}

	var records []Commentary
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, c.fail(SourceTafseer, "decode tafseer", err)
	}
	return withText(records), nil
}

// withText drops records that carry no commentary text.
func withText(records []Commentary) []Commentary {
	out := records[:0]
	for _, r := range records {
		if strings.TrimSpace(r.Text) != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// RawCommentary returns the upstream tafseer body unchanged. It fails unless
// the body is valid JSON.
func (c *Client) RawCommentary(ctx context.Context, tafseerID, chapter, verseStart, verseEnd int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%d/%d/%d/%d", c.tafseerURL, tafseerID, chapter, verseStart, verseEnd)
	body, err := c.get(ctx, SourceTafseer, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, c.fail(SourceTafseer, "tafseer response is not JSON", nil)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, source, endpoint string, params url.Values) (body []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.RecordUpstream(ctx, source, time.Since(start).Seconds(), apperrors.CodeOf(err))
	}()

	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.fail(source, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(source, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, c.fail(source, fmt.Sprintf("API returned status %d", resp.StatusCode), errors.New(strings.TrimSpace(string(payload))))
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(source, "read response", err)
	}

	c.logger.Debug("upstream request",
		zap.String("source", source),
		zap.String("url", endpoint),
		zap.Int("bytes", len(body)),
		zap.Duration("latency", time.Since(start)),
	)
	return body, nil
}

// fail classifies err as a timeout or a generic network failure.
func (c *Client) fail(source, message string, err error) error {
	code := apperrors.CodeNetwork
	if isTimeout(err) {
		code = apperrors.CodeTimeout
		message = message + ": timed out"
	}
	c.logger.Debug("upstream failure", zap.String("source", source), zap.String("code", code), zap.Error(err))
	return apperrors.Wrap(code, source+": "+message, err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
