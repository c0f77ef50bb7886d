package render

import "github.com/charmbracelet/lipgloss"

// Color palette for listing and table output
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // purple - headers
	AddrColor    = lipgloss.Color("#5FAFFF") // blue - addresses
	MnemColor    = lipgloss.Color("#43BF6D") // green - mnemonics
	ErrorColor   = lipgloss.Color("#FF5555") // red - decode issues
	WarningColor = lipgloss.Color("#FFA500") // orange - predicates, cross path
	MutedColor   = lipgloss.Color("#626262") // gray - raw words, padding
	TextColor    = lipgloss.Color("#FFFFFF") // white - operands
)

var (
	// HeaderStyle is for table and summary headers
	HeaderStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// LabelStyle is for summary field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(14)

	// ValueStyle is for summary field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// AddrStyle is for addresses and offsets
	AddrStyle = lipgloss.NewStyle().
			Foreground(AddrColor)

	// RawStyle is for raw instruction words and hex bytes
	RawStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// MnemStyle is for instruction mnemonics and unit tags
	MnemStyle = lipgloss.NewStyle().
			Foreground(MnemColor)

	// PredStyle is for predicate guards
	PredStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// BadStyle is for undecodable words and packet issues
	BadStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)
)
