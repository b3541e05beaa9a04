// Package styles holds the galleria TUI palettes and layout helpers.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// StatusColors defines colors for transient and error state.
type StatusColors struct {
	Favorite string
	Error    string
	Notice   string
	Progress string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	StatusLine   string
	SelectedItem string
	Marked       string
}

// BorderColors defines border colors for pane state.
type BorderColors struct {
	ActivePane   string
	InactivePane string
	Divider      string
}

// Theme defines the galleria TUI style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "hidden"

	Base    BaseColors
	Status  StatusColors
	Chrome  ChromeColors
	Borders BorderColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named palette, falling back to DefaultTheme.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// Muted renders secondary text.
func (t Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// Accent renders highlighted text.
func (t Theme) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// Selected renders the item under the cursor.
func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Base.Background)).
		Background(lipgloss.Color(t.Chrome.SelectedItem)).
		Bold(true)
}

// Marked renders items picked for a bulk operation.
func (t Theme) Marked() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Marked)).Bold(true)
}

// Favorite renders the favorite marker.
func (t Theme) Favorite() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Favorite))
}

// Error renders inline failures.
func (t Theme) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Error)).Bold(true)
}

// Notice renders transient banners.
func (t Theme) Notice() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Base.Background)).
		Background(lipgloss.Color(t.Status.Notice)).
		Padding(0, 1)
}
