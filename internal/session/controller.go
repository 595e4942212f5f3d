// Package session is the verse session controller: chapter selection, verse
// selection, audio URL construction and playback, commentary retrieval and
// voice lookup.
//
// The controller is a state machine over an immutable [State]. Actions return
// the next State plus a bubbletea command performing the I/O; the command's
// result message comes back through [Controller.Update]. Everything runs on
// the program's single update loop, so State needs no locking. Every result
// message carries the chapter generation (and verse key) it was issued for
// and is discarded when the selection has moved on.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"quran-player/internal/api"
	"quran-player/internal/apperrors"
	"quran-player/internal/match"
	"quran-player/internal/observe"
	"quran-player/internal/speech"
)

// Gateway is the external data the controller consumes. *api.Client
// implements it.
type Gateway interface {
	Chapters(ctx context.Context) ([]api.Chapter, error)
	Verses(ctx context.Context, chapter int) ([]api.Verse, error)
	Commentary(ctx context.Context, tafseerID, chapter, verseStart, verseEnd int) ([]api.Commentary, error)
}

// AudioPlayer plays a recitation until it ends or ctx is cancelled.
// *audio.Player implements it.
type AudioPlayer interface {
	Play(ctx context.Context, url string) error
}

type Controller struct {
	gateway     Gateway
	transcriber speech.Transcriber
	player      AudioPlayer
	matcher     *match.Matcher
	metrics     *observe.Metrics
	logger      *zap.Logger
	audioBase   string
	tafseerID   int
	language    string
}

type Option func(*Controller)

// WithTranscriber enables voice lookup. Without it StartRecording fails with
// apperrors.CodeUnsupported.
func WithTranscriber(t speech.Transcriber) Option {
	return func(c *Controller) { c.transcriber = t }
}

// WithPlayer enables audio playback. Without it Play fails with
// apperrors.CodeUnsupported.
func WithPlayer(p AudioPlayer) Option {
	return func(c *Controller) { c.player = p }
}

func WithMatcher(m *match.Matcher) Option {
	return func(c *Controller) { c.matcher = m }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithAudioBaseURL sets the directory holding per-verse mp3 files.
func WithAudioBaseURL(base string) Option {
	return func(c *Controller) { c.audioBase = base }
}

// WithTafseerID selects the commentary set. Default: 1.
func WithTafseerID(id int) Option {
	return func(c *Controller) {
		if id > 0 {
			c.tafseerID = id
		}
	}
}

// WithLanguage sets the recognition language. Default: ar-SA.
func WithLanguage(lang string) Option {
	return func(c *Controller) {
		if lang != "" {
			c.language = lang
		}
	}
}

func New(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gateway,
		audioBase: api.DefaultAudioBaseURL,
		tafseerID: 1,
		language:  speech.DefaultLanguage,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.matcher == nil {
		c.matcher, _ = match.New()
	}
	if c.metrics == nil {
		c.metrics = observe.Discard()
	}
	return c
}

type chaptersLoadedMsg struct {
	chapters []api.Chapter
	err      error
}

type versesLoadedMsg struct {
	generation uint64
	chapter    int
	verses     []api.Verse
	err        error
}

type commentaryLoadedMsg struct {
	generation uint64
	key        string
	records    []api.Commentary
	err        error
}

type transcribedMsg struct {
	generation uint64
	text       string
	err        error
}

type playbackFinishedMsg struct {
	playback uint64
	key      string
	err      error
}

// LoadChapters requests the chapter list.
func (c *Controller) LoadChapters(s State) (State, tea.Cmd) {
	s.loadingChaps = true
	s.Err = nil
	gw := c.gateway
	return s, func() tea.Msg {
		chapters, err := gw.Chapters(context.Background())
		return chaptersLoadedMsg{chapters: chapters, err: err}
	}
}

// SelectChapter clears the verse selection and requests the chapter's verses.
// Results of earlier selections still in flight are discarded on arrival.
func (c *Controller) SelectChapter(s State, id int) (State, tea.Cmd, error) {
	if id < 1 || (len(s.Chapters) > 0 && !hasChapter(s.Chapters, id)) {
		err := apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("chapter %d does not exist", id), nil)
		c.logger.Warn("chapter rejected", zap.Int("chapter", id), zap.Error(err))
		return s, nil, err
	}

	if s.stopCapture != nil {
		s.stopCapture()
		s.stopCapture = nil
	}
	s = c.StopPlayback(s)

	next := State{
		Phase:        ChapterLoading,
		Chapters:     s.Chapters,
		ChapterID:    id,
		generation:   s.generation + 1,
		playback:     s.playback,
		loadingChaps: s.loadingChaps,
	}
	c.logger.Info("chapter selected", zap.Int("chapter", id), zap.Uint64("generation", next.generation))

	gw, gen := c.gateway, next.generation
	return next, func() tea.Msg {
		verses, err := gw.Verses(context.Background(), id)
		return versesLoadedMsg{generation: gen, chapter: id, verses: verses, err: err}
	}, nil
}

// SelectVerse selects "<chapter>:<verse>" in the active chapter and requests
// its commentary. A key outside the loaded chapter leaves s untouched.
func (c *Controller) SelectVerse(s State, key string) (State, tea.Cmd, error) {
	chapter, verse, err := c.validateKey(s, key)
	if err != nil {
		c.logger.Warn("verse rejected", zap.String("verse_key", key), zap.Error(err))
		return s, nil, err
	}
	key = api.VerseKey(chapter, verse)

	s = c.StopPlayback(s)
	s.VerseKey = key
	s.VerseText = verseText(s.Verses, verse, key)
	s.AudioURL = api.AudioURL(c.audioBase, chapter, verse)
	s.Phase = VerseLoading
	s.Err = nil
	c.logger.Info("verse selected", zap.String("verse_key", key), zap.String("audio_url", s.AudioURL))

	gw, gen, tafseerID := c.gateway, s.generation, c.tafseerID
	return s, func() tea.Msg {
		records, err := gw.Commentary(context.Background(), tafseerID, chapter, verse, verse)
		return commentaryLoadedMsg{generation: gen, key: key, records: records, err: err}
	}, nil
}

// Next selects the verse after the current one, or the first verse.
func (c *Controller) Next(s State) (State, tea.Cmd, error) {
	return c.step(s, 1)
}

// Prev selects the verse before the current one.
func (c *Controller) Prev(s State) (State, tea.Cmd, error) {
	return c.step(s, -1)
}

func (c *Controller) step(s State, delta int) (State, tea.Cmd, error) {
	target := 1
	if s.VerseKey != "" {
		_, verse, err := api.ParseVerseKey(s.VerseKey)
		if err != nil {
			return s, nil, err
		}
		target = verse + delta
	}
	return c.SelectVerse(s, api.VerseKey(s.ChapterID, target))
}

// StartRecording captures one recitation and selects the verse it matches.
// It does nothing without a loaded chapter or while a capture is running.
func (c *Controller) StartRecording(s State) (State, tea.Cmd, error) {
	if !s.CanRecord() {
		c.logger.Debug("recording ignored", zap.Bool("recording", s.Recording), zap.Stringer("phase", s.Phase))
		return s, nil, nil
	}
	if c.transcriber == nil {
		err := apperrors.Wrap(apperrors.CodeUnsupported, "speech transcription is not available", nil)
		c.logger.Warn("recording unavailable", zap.Error(err))
		return s, nil, err
	}
	if u, ok := c.transcriber.(speech.Unsupported); ok {
		_, err := u.Transcribe(context.Background(), speech.Request{})
		c.logger.Warn("recording unavailable", zap.Error(err))
		return s, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Recording = true
	s.stopCapture = cancel
	s.Err = nil
	c.logger.Info("recording started", zap.Int("chapter", s.ChapterID), zap.String("language", c.language))

	tr, gen, lang := c.transcriber, s.generation, c.language
	return s, func() tea.Msg {
		defer cancel()
		text, err := tr.Transcribe(ctx, speech.Request{Language: lang})
		return transcribedMsg{generation: gen, text: text, err: err}
	}, nil
}

// Play streams the selected verse's recitation. Any playback already running
// is stopped first.
func (c *Controller) Play(s State) (State, tea.Cmd, error) {
	if !s.CanPlay() {
		return s, nil, apperrors.Wrap(apperrors.CodeValidation, "choose an ayah first", nil)
	}
	if c.player == nil {
		err := apperrors.Wrap(apperrors.CodeUnsupported, "audio playback is not available", nil)
		c.logger.Warn("playback unavailable", zap.Error(err))
		return s, nil, err
	}

	s = c.StopPlayback(s)
	ctx, cancel := context.WithCancel(context.Background())
	s.playback++
	s.Playing = true
	s.stopPlayback = cancel
	s.Err = nil
	c.logger.Info("playback started", zap.String("verse_key", s.VerseKey), zap.String("audio_url", s.AudioURL))

	p, id, key, url := c.player, s.playback, s.VerseKey, s.AudioURL
	return s, func() tea.Msg {
		defer cancel()
		err := p.Play(ctx, url)
		return playbackFinishedMsg{playback: id, key: key, err: err}
	}, nil
}

// StopPlayback cancels the running playback, if any.
func (c *Controller) StopPlayback(s State) State {
	if s.stopPlayback != nil {
		s.stopPlayback()
		c.logger.Debug("playback stopped", zap.String("verse_key", s.VerseKey))
	}
	s.stopPlayback = nil
	s.Playing = false
	return s
}

// Stop cancels playback and any running capture. Call it before exiting.
func (c *Controller) Stop(s State) State {
	s = c.StopPlayback(s)
	if s.stopCapture != nil {
		s.stopCapture()
		s.stopCapture = nil
	}
	return s
}

// Update applies a result message. Messages it does not own pass through.
func (c *Controller) Update(s State, msg tea.Msg) (State, tea.Cmd) {
	switch msg := msg.(type) {
	case chaptersLoadedMsg:
		s.loadingChaps = false
		if msg.err != nil {
			c.logger.Error("chapter list failed", zap.Error(msg.err))
			s.Err = msg.err
			return s, nil
		}
		s.Chapters = msg.chapters
		c.logger.Info("chapter list loaded", zap.Int("chapters", len(msg.chapters)))
		return s, nil

	case versesLoadedMsg:
		if msg.generation != s.generation || s.Phase != ChapterLoading {
			c.logger.Debug("stale verses dropped", zap.Int("chapter", msg.chapter), zap.Uint64("generation", msg.generation))
			return s, nil
		}
		if msg.err != nil {
			c.logger.Error("verse list failed", zap.Int("chapter", msg.chapter), zap.Error(msg.err))
			return State{
				Phase:        Idle,
				Chapters:     s.Chapters,
				Err:          msg.err,
				generation:   s.generation,
				playback:     s.playback,
				loadingChaps: s.loadingChaps,
			}, nil
		}
		s.Verses = msg.verses
		s.Phase = ChapterReady
		c.logger.Info("chapter ready", zap.Int("chapter", msg.chapter), zap.Int("verses", len(msg.verses)))
		return s, nil

	case commentaryLoadedMsg:
		if msg.generation != s.generation || msg.key != s.VerseKey || s.Phase != VerseLoading {
			c.logger.Debug("stale commentary dropped", zap.String("verse_key", msg.key))
			return s, nil
		}
		s.Phase = VerseReady
		if msg.err != nil {
			c.logger.Error("commentary failed", zap.String("verse_key", msg.key), zap.Error(msg.err))
			s.Err = msg.err
			return s, nil
		}
		if len(msg.records) == 0 {
			s.Commentary = NoCommentary
		} else {
			s.Commentary = msg.records[0].Text
		}
		return s, nil

	case transcribedMsg:
		if msg.generation != s.generation {
			c.logger.Debug("stale transcript dropped", zap.Uint64("generation", msg.generation))
			return s, nil
		}
		s.Recording = false
		s.stopCapture = nil
		if msg.err != nil {
			c.logger.Error("transcription failed", zap.Error(msg.err))
			s.Err = msg.err
			return s, nil
		}
		return c.applyTranscript(s, msg.text)

	case playbackFinishedMsg:
		if msg.playback != s.playback || !s.Playing {
			c.logger.Debug("stale playback result dropped", zap.String("verse_key", msg.key))
			return s, nil
		}
		s.Playing = false
		s.stopPlayback = nil
		if msg.err != nil {
			c.logger.Error("playback failed", zap.String("verse_key", msg.key), zap.Error(msg.err))
			s.Err = msg.err
			return s, nil
		}
		c.logger.Info("playback finished", zap.String("verse_key", msg.key))
		return s, nil
	}
	return s, nil
}

func (c *Controller) applyTranscript(s State, text string) (State, tea.Cmd) {
	best, ok := c.matcher.Best(text, s.VerseTexts())
	c.metrics.RecordMatch(context.Background(), ok)
	if !ok {
		err := apperrors.Wrap(apperrors.CodeNoMatch, "no matching ayah found", nil)
		c.logger.Info("no matching verse",
			zap.String("transcript", text),
			zap.Int("chapter", s.ChapterID),
			zap.Float64("threshold", c.matcher.Threshold()),
		)
		s.Err = err
		return s, nil
	}

	key := s.Verses[best.Index].Key
	if key == "" {
		key = api.VerseKey(s.ChapterID, best.Index+1)
	}
	c.logger.Info("verse matched",
		zap.String("transcript", text),
		zap.String("verse_key", key),
		zap.Float64("score", best.Score),
	)
	next, cmd, err := c.SelectVerse(s, key)
	if err != nil {
		s.Err = err
		return s, nil
	}
	return next, cmd
}

func (c *Controller) validateKey(s State, key string) (chapter, verse int, err error) {
	if !s.HasChapter() {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation, "no chapter loaded", nil)
	}
	chapter, verse, err = api.ParseVerseKey(key)
	if err != nil {
		return 0, 0, err
	}
	if chapter != s.ChapterID {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation,
			fmt.Sprintf("verse %s is not in chapter %d", key, s.ChapterID), nil)
	}
	if verse < 1 || verse > len(s.Verses) {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation,
			fmt.Sprintf("ayah %d does not exist in surah %d", verse, chapter), nil)
	}
	return chapter, verse, nil
}

func verseText(verses []api.Verse, verse int, key string) string {
	if v := verses[verse-1]; v.Key == key || v.Key == "" {
		return v.Text
	}
	for _, v := range verses {
		if v.Key == key {
			return v.Text
		}
	}
	return ""
}

func hasChapter(chapters []api.Chapter, id int) bool {
	for _, c := range chapters {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ParseVerseInput accepts "<chapter>:<verse>" or a bare verse number in the
// active chapter.
func ParseVerseInput(s State, input string) string {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil {
		return api.VerseKey(s.ChapterID, n)
	}
	return input
}
