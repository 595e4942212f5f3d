package ui

import (
	"fmt"
	"strings"

	"quran-player/internal/session"
)

const maxTextWidth = 80

func (m Model) content() string {
	s := m.state
	switch {
	case s.VerseKey != "":
		return m.renderVerse()
	case s.Phase == session.ChapterReady:
		return m.renderChapter()
	case s.Phase == session.ChapterLoading:
		return ""
	default:
		return m.renderChapterList()
	}
}

func (m Model) textWidth() int {
	w := m.width - 4
	if w > maxTextWidth || w <= 0 {
		w = maxTextWidth
	}
	return w
}

func (m Model) renderChapterList() string {
	chapters := m.state.Chapters
	if len(chapters) == 0 {
		return m.styles.Help.Render("Press c to choose a surah.")
	}

	var sb strings.Builder
	for _, c := range chapters {
		sb.WriteString(fmt.Sprintf("%s  %s\n", m.styles.VerseKey.Render(fmt.Sprintf("%3d", c.ID)), c.Name))
	}
	return sb.String()
}

func (m Model) renderChapter() string {
	verse := m.styles.Verse.Width(m.textWidth())

	var sb strings.Builder
	for _, v := range m.state.Verses {
		sb.WriteString(m.styles.VerseKey.Render(v.Key))
		sb.WriteString("\n")
		sb.WriteString(verse.Render(v.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) renderVerse() string {
	s := m.state
	width := m.textWidth()

	var sb strings.Builder
	sb.WriteString(m.styles.VerseKey.Render(s.VerseKey))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Verse.Width(width).Render(s.VerseText))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Label.Render("Audio") + "  " + m.styles.Link.Render(s.AudioURL))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Label.Render("Tafsir"))
	sb.WriteString("\n")

	commentary := s.Commentary
	if s.Phase == session.VerseLoading {
		commentary = "Loading tafsir..."
	}
	sb.WriteString(m.styles.Commentary.Width(width).Render(commentary))
	sb.WriteString("\n")
	return sb.String()
}
