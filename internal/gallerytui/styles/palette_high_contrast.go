package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "sharp",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Status: StatusColors{
		Favorite: "226",
		Error:    "196",
		Notice:   "229",
		Progress: "46",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		StatusLine:   "244",
		SelectedItem: "51",
		Marked:       "225",
	},
	Borders: BorderColors{
		ActivePane:   "231",
		InactivePane: "250",
		Divider:      "248",
	},
}
