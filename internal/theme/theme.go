package theme

import "github.com/charmbracelet/lipgloss"

// Theme is a named colour palette.
type Theme struct {
	Slug string
	Name string

	// Text
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	// Chrome
	Border       lipgloss.Color
	BorderActive lipgloss.Color
}

// DefaultSlug is used when a configured theme is unknown.
const DefaultSlug = "catppuccin-mocha"

var (
	CatppuccinMocha = Theme{
		Slug:         "catppuccin-mocha",
		Name:         "Catppuccin Mocha",
		Primary:      lipgloss.Color("#cdd6f4"),
		Secondary:    lipgloss.Color("#a6adc8"),
		Accent:       lipgloss.Color("#f9e2af"),
		Muted:        lipgloss.Color("#6c7086"),
		Error:        lipgloss.Color("#f38ba8"),
		Success:      lipgloss.Color("#a6e3a1"),
		Warning:      lipgloss.Color("#fab387"),
		Border:       lipgloss.Color("#45475a"),
		BorderActive: lipgloss.Color("#89b4fa"),
	}

	CatppuccinLatte = Theme{
		Slug:         "catppuccin-latte",
		Name:         "Catppuccin Latte",
		Primary:      lipgloss.Color("#4c4f69"),
		Secondary:    lipgloss.Color("#5c5f77"),
		Accent:       lipgloss.Color("#df8e1d"),
		Muted:        lipgloss.Color("#9ca0b0"),
		Error:        lipgloss.Color("#d20f39"),
		Success:      lipgloss.Color("#40a02b"),
		Warning:      lipgloss.Color("#fe640b"),
		Border:       lipgloss.Color("#dce0e8"),
		BorderActive: lipgloss.Color("#1e66f5"),
	}

	Nord = Theme{
		Slug:         "nord",
		Name:         "Nord",
		Primary:      lipgloss.Color("#eceff4"),
		Secondary:    lipgloss.Color("#d8dee9"),
		Accent:       lipgloss.Color("#88c0d0"),
		Muted:        lipgloss.Color("#4c566a"),
		Error:        lipgloss.Color("#bf616a"),
		Success:      lipgloss.Color("#a3be8c"),
		Warning:      lipgloss.Color("#ebcb8b"),
		Border:       lipgloss.Color("#3b4252"),
		BorderActive: lipgloss.Color("#81a1c1"),
	}

	Gruvbox = Theme{
		Slug:         "gruvbox",
		Name:         "Gruvbox Dark",
		Primary:      lipgloss.Color("#ebdbb2"),
		Secondary:    lipgloss.Color("#a89984"),
		Accent:       lipgloss.Color("#fabd2f"),
		Muted:        lipgloss.Color("#928374"),
		Error:        lipgloss.Color("#fb4934"),
		Success:      lipgloss.Color("#b8bb26"),
		Warning:      lipgloss.Color("#fe8019"),
		Border:       lipgloss.Color("#504945"),
		BorderActive: lipgloss.Color("#83a598"),
	}

	SolarizedDark = Theme{
		Slug:         "solarized-dark",
		Name:         "Solarized Dark",
		Primary:      lipgloss.Color("#93a1a1"),
		Secondary:    lipgloss.Color("#839496"),
		Accent:       lipgloss.Color("#b58900"),
		Muted:        lipgloss.Color("#586e75"),
		Error:        lipgloss.Color("#dc322f"),
		Success:      lipgloss.Color("#859900"),
		Warning:      lipgloss.Color("#cb4b16"),
		Border:       lipgloss.Color("#073642"),
		BorderActive: lipgloss.Color("#268bd2"),
	}
)

// All returns every theme in cycling order.
func All() []Theme {
	return []Theme{CatppuccinMocha, CatppuccinLatte, Nord, Gruvbox, SolarizedDark}
}

// Get returns the theme named slug, or Catppuccin Mocha.
func Get(slug string) Theme {
	for _, t := range All() {
		if t.Slug == slug {
			return t
		}
	}
	return CatppuccinMocha
}

// Next returns the theme after slug, wrapping around.
func Next(slug string) Theme {
	themes := All()
	for i, t := range themes {
		if t.Slug == slug {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// Styles are the lipgloss styles the player renders with.
type Styles struct {
	Header     lipgloss.Style
	Title      lipgloss.Style
	VerseKey   lipgloss.Style
	Verse      lipgloss.Style
	Label      lipgloss.Style
	Commentary lipgloss.Style
	Link       lipgloss.Style
	Recording  lipgloss.Style
	Playing    lipgloss.Style
	Spinner    lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
	Prompt     lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		VerseKey: lipgloss.NewStyle().Bold(true).Foreground(t.BorderActive),
		Verse: lipgloss.NewStyle().
			Foreground(t.Primary).
			Align(lipgloss.Right),
		Label:      lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		Commentary: lipgloss.NewStyle().Foreground(t.Secondary),
		Link:       lipgloss.NewStyle().Underline(true).Foreground(t.Muted),
		Recording:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Playing:    lipgloss.NewStyle().Foreground(t.Success),
		Spinner:    lipgloss.NewStyle().Foreground(t.Success),
		Help:       lipgloss.NewStyle().Foreground(t.Muted),
		Error:      lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Prompt:     lipgloss.NewStyle().Foreground(t.Accent),
	}
}
