package models

import "strings"

// Handedness values accepted by the profile table
type Handedness string

const (
	HandednessRight Handedness = "Right"
	HandednessLeft  Handedness = "Left"
)

// Units is the player's preferred distance unit
type Units string

const (
	UnitsYards  Units = "Yards"
	UnitsMeters Units = "Meters"
)

// SwingTendency is the player's typical shot shape
type SwingTendency string

const (
	SwingStraight SwingTendency = "Straight"
	SwingHook     SwingTendency = "Hook"
	SwingSlice    SwingTendency = "Slice"
	SwingDraw     SwingTendency = "Draw"
	SwingFade     SwingTendency = "Fade"
)

var (
	HandednessOptions    = []Handedness{HandednessRight, HandednessLeft}
	UnitsOptions         = []Units{UnitsYards, UnitsMeters}
	SwingTendencyOptions = []SwingTendency{SwingStraight, SwingHook, SwingSlice, SwingDraw, SwingFade}
)

func (h Handedness) Valid() bool {
	for _, o := range HandednessOptions {
		if h == o {
			return true
		}
	}
	return false
}

func (u Units) Valid() bool {
	for _, o := range UnitsOptions {
		if u == o {
			return true
		}
	}
	return false
}

func (s SwingTendency) Valid() bool {
	for _, o := range SwingTendencyOptions {
		if s == o {
			return true
		}
	}
	return false
}

// ClubRoster is the fixed set of club labels a player can record a yardage for
var ClubRoster = []string{
	"Driver",
	"3 Wood",
	"5 Wood",
	"7 Wood",
	"Hybrid",
	"3 Iron",
	"4 Iron",
	"5 Iron",
	"6 Iron",
	"7 Iron",
	"8 Iron",
	"9 Iron",
	"Pitching Wedge",
	"Gap Wedge",
	"Sand Wedge",
	"Lob Wedge",
	"Putter",
}

// IsRosterClub reports whether label is one of ClubRoster
func IsRosterClub(label string) bool {
	for _, c := range ClubRoster {
		if c == label {
			return true
		}
	}
	return false
}

// Hole options offered when starting a round
const (
	HoleOptionFront9 = "Front 9"
	HoleOptionBack9  = "Back 9"
	HoleOptionFull18 = "Full 18"
)

var HoleOptions = []string{HoleOptionFront9, HoleOptionBack9, HoleOptionFull18}

// HoleRange returns the first and last hole for a hole option
func HoleRange(option string) (int, int, bool) {
	switch option {
	case HoleOptionFront9:
		return 1, 9, true
	case HoleOptionBack9:
		return 10, 18, true
	case HoleOptionFull18:
		return 1, 18, true
	}
	return 0, 0, false
}

// DefaultGreetingName is shown on the dashboard when the profile has no name yet
const DefaultGreetingName = "Golfer"

// JoinOptions renders an option list for validation messages
func JoinOptions[T ~string](options []T) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = string(o)
	}
	return strings.Join(parts, ", ")
}
