// Package render composites spending totals, an optional weather reading and
// optional background artwork onto a fixed-size grayscale canvas.
//
// Rendering is deterministic: identical inputs produce identical pixel
// bytes. All blending is done with integer arithmetic.
package render

import "spendboard/internal/spending"

// Role names a text style. Each role has its own size and gray level.
type Role int

const (
	Label Role = iota
	Small
	Medium
	Large
	Annotation

	numRoles
)

// Roles lists every role in backfill order.
var Roles = []Role{Label, Small, Medium, Large, Annotation}

func (r Role) String() string {
	switch r {
	case Label:
		return "label"
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	case Annotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// Sizes holds the pixel size of each role.
type Sizes [numRoles]float64

// DefaultSizes matches the e-ink layout: small labels, growing amounts.
func DefaultSizes() Sizes {
	return Sizes{
		Label:      36,
		Small:      80,
		Medium:     115,
		Large:      200,
		Annotation: 42,
	}
}

// Levels holds the gray level of each role; 0 is black.
type Levels [numRoles]uint8

// DefaultLevels renders labels lightest and the month amount at full contrast.
func DefaultLevels() Levels {
	return Levels{
		Label:      150,
		Small:      100,
		Medium:     60,
		Large:      0,
		Annotation: 100,
	}
}

// Row places one window's label above its amount.
type Row struct {
	Window       spending.Window
	Title        string
	Y            int
	AmountOffset int
	AmountRole   Role
}

// WeatherLayout positions the temperature and icon in the top margin.
type WeatherLayout struct {
	IconSize     int
	IconY        int
	TextY        int
	RightPadding int
	IconGap      int
}

// CharacterLayout places the background artwork.
type CharacterLayout struct {
	Height         int
	OpacityPercent int
	BottomOverflow int
}

// Layout is the complete, caller-overridable description of the canvas.
type Layout struct {
	Width      int
	Height     int
	Background uint8
	Sizes      Sizes
	Levels     Levels
	Rows       []Row
	Weather    WeatherLayout
	Character  CharacterLayout
}

// DefaultLayout targets a 1072x1448 e-ink panel.
func DefaultLayout() Layout {
	const startY = 340
	return Layout{
		Width:      1072,
		Height:     1448,
		Background: 232,
		Sizes:      DefaultSizes(),
		Levels:     DefaultLevels(),
		Rows: []Row{
			{Window: spending.Day, Title: "DAY", Y: startY, AmountOffset: 45, AmountRole: Small},
			{Window: spending.Week, Title: "WEEK", Y: startY + 170, AmountOffset: 45, AmountRole: Medium},
			{Window: spending.Month, Title: "MONTH", Y: startY + 380, AmountOffset: 50, AmountRole: Large},
		},
		Weather: WeatherLayout{
			IconSize:     48,
			IconY:        38,
			TextY:        40,
			RightPadding: 40,
			IconGap:      12,
		},
		Character: CharacterLayout{
			Height:         350,
			OpacityPercent: 70,
			BottomOverflow: 32,
		},
	}
}
