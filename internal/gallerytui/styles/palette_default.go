package styles

// DefaultTheme is the baseline dark palette for the galleria TUI.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Status: StatusColors{
		Favorite: "214",
		Error:    "203",
		Notice:   "220",
		Progress: "41",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		StatusLine:   "238",
		SelectedItem: "75",
		Marked:       "147",
	},
	Borders: BorderColors{
		ActivePane:   "75",
		InactivePane: "240",
		Divider:      "238",
	},
}
