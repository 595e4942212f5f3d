package session

import (
	"context"

	"quran-player/internal/api"
)

// Phase is the controller's position in the selection flow.
type Phase int

const (
	Idle Phase = iota
	ChapterLoading
	ChapterReady
	VerseLoading
	VerseReady
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ChapterLoading:
		return "chapter-loading"
	case ChapterReady:
		return "chapter-ready"
	case VerseLoading:
		return "verse-loading"
	case VerseReady:
		return "verse-ready"
	default:
		return "unknown"
	}
}

// NoCommentary replaces the commentary when the source has no record.
const NoCommentary = "No tafsir available for this ayah."

// State is one immutable snapshot of the player. Controller methods return a
// new State; the Verses slice is shared between snapshots and never written.
type State struct {
	Phase    Phase
	Chapters []api.Chapter

	ChapterID int
	Verses    []api.Verse

	VerseKey   string
	VerseText  string
	AudioURL   string
	Commentary string

	Recording bool
	Playing   bool

	// Err is the last asynchronous failure, cleared by the next action.
	Err error

	// generation increments on every chapter selection; results tagged with
	// an older generation are dropped.
	generation   uint64
	stopCapture  context.CancelFunc
	loadingChaps bool

	// playback increments on every Play; a finished result for an older
	// playback is dropped.
	playback     uint64
	stopPlayback context.CancelFunc
}

// HasChapter reports whether a chapter's verses are loaded.
func (s State) HasChapter() bool {
	return s.Phase >= ChapterReady
}

// CanRecord reports whether StartRecording would start a capture.
func (s State) CanRecord() bool {
	return s.HasChapter() && !s.Recording
}

// CanPlay reports whether a verse with audio is selected.
func (s State) CanPlay() bool {
	return s.VerseKey != "" && s.AudioURL != ""
}

// LoadingChapters reports whether the chapter list request is in flight.
func (s State) LoadingChapters() bool {
	return s.loadingChaps
}

// ChapterName returns the active chapter's display name, or "".
func (s State) ChapterName() string {
	for _, c := range s.Chapters {
		if c.ID == s.ChapterID {
			return c.Name
		}
	}
	return ""
}

// VerseTexts returns the raw text of every loaded verse, in order.
func (s State) VerseTexts() []string {
	texts := make([]string, len(s.Verses))
	for i, v := range s.Verses {
		texts[i] = v.Text
	}
	return texts
}
