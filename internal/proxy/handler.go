// Package proxy serves tafseer lookups over HTTP for clients that cannot reach
// the commentary API directly, plus a transcript-to-verse match endpoint.
package proxy

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quran-player/internal/api"
	"quran-player/internal/apperrors"
	"quran-player/internal/match"
	"quran-player/internal/observe"
)

// FetchFailed is the only body sent when the tafseer upstream fails. Upstream
// details stay in the log.
const FetchFailed = "Error fetching tafseer"

// Upstream is the data the handlers need. *api.Client implements it.
type Upstream interface {
	RawCommentary(ctx context.Context, tafseerID, chapter, verseStart, verseEnd int) ([]byte, error)
	Verses(ctx context.Context, chapter int) ([]api.Verse, error)
}

type Handler struct {
	upstream Upstream
	matcher  *match.Matcher
	metrics  *observe.Metrics
	logger   *zap.Logger
}

func NewHandler(upstream Upstream, matcher *match.Matcher, metrics *observe.Metrics, logger *zap.Logger) *Handler {
	if matcher == nil {
		matcher, _ = match.New()
	}
	if metrics == nil {
		metrics = observe.Discard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{upstream: upstream, matcher: matcher, metrics: metrics, logger: logger}
}

// Tafseer handles GET /api/tafseer/:tafseer_id/:surah?ayah=N and relays the
// upstream JSON for that single ayah.
func (h *Handler) Tafseer(c *gin.Context) {
	tafseerID, err1 := positive(c.Param("tafseer_id"))
	surah, err2 := positive(c.Param("surah"))
	ayah, err3 := positive(c.Query("ayah"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.String(http.StatusBadRequest, "tafseer_id, surah and ayah must be positive integers")
		return
	}

	body, err := h.upstream.RawCommentary(c.Request.Context(), tafseerID, surah, ayah, ayah)
	if err != nil {
		h.logger.Error("tafseer fetch failed",
			zap.Int("tafseer_id", tafseerID),
			zap.Int("surah", surah),
			zap.Int("ayah", ayah),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, FetchFailed)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// maxAlternatives caps the runner-up candidates returned with a match.
const maxAlternatives = 3

// Candidate is one accepted verse.
type Candidate struct {
	VerseKey string  `json:"verse_key"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// MatchResponse is the body of a successful match: the best verse plus up to
// three runners-up that also cleared the threshold.
type MatchResponse struct {
	Candidate
	Alternatives []Candidate `json:"alternatives,omitempty"`
}

// Match handles GET /api/chapters/:surah/match?q=<transcript>.
func (h *Handler) Match(c *gin.Context) {
	surah, err := positive(c.Param("surah"))
	if err != nil {
		abortWithError(c, apperrors.Wrap(apperrors.CodeValidation, "surah must be a positive integer", err))
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		abortWithError(c, apperrors.Wrap(apperrors.CodeValidation, "q is required", nil))
		return
	}

	verses, err := h.upstream.Verses(c.Request.Context(), surah)
	if err != nil {
		abortWithError(c, err)
		return
	}

	texts := make([]string, len(verses))
	for i, v := range verses {
		texts[i] = v.Text
	}
	ranked := h.matcher.Rank(query, texts)
	h.metrics.RecordMatch(c.Request.Context(), len(ranked) > 0)
	if len(ranked) == 0 {
		abortWithError(c, apperrors.Wrap(apperrors.CodeNoMatch, "no matching ayah found", nil))
		return
	}

	resp := MatchResponse{Candidate: candidate(surah, verses, ranked[0])}
	for _, r := range ranked[1:min(len(ranked), maxAlternatives+1)] {
		resp.Alternatives = append(resp.Alternatives, candidate(surah, verses, r))
	}
	c.JSON(http.StatusOK, resp)
}

func candidate(surah int, verses []api.Verse, r match.Result) Candidate {
	v := verses[r.Index]
	key := v.Key
	if key == "" {
		key = api.VerseKey(surah, r.Index+1)
	}
	return Candidate{VerseKey: key, Text: v.Text, Score: r.Score}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func positive(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
