package quality

import "fmt"

// Level is one rung of the rendition ladder.
type Level struct {
	Label       string `json:"label"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BitrateKbps int    `json:"bitrate_kbps"`
}

// Resolution returns the level's size as WIDTHxHEIGHT.
func (l Level) Resolution() string {
	return fmt.Sprintf("%dx%d", l.Width, l.Height)
}

// Bandwidth returns the advertised bandwidth in bits per second.
func (l Level) Bandwidth() int {
	return l.BitrateKbps * 1000
}

func (l Level) String() string {
	return l.Label
}

// ladder is ordered by descending height. Never mutated.
var ladder = [...]Level{
	{Label: "2160p", Width: 3840, Height: 2160, BitrateKbps: 10000},
	{Label: "1440p", Width: 2560, Height: 1440, BitrateKbps: 8000},
	{Label: "1080p", Width: 1920, Height: 1080, BitrateKbps: 5000},
	{Label: "720p", Width: 1280, Height: 720, BitrateKbps: 2500},
	{Label: "480p", Width: 854, Height: 480, BitrateKbps: 1200},
	{Label: "360p", Width: 640, Height: 360, BitrateKbps: 800},
}

// Ladder returns a copy of the full table, highest level first.
func Ladder() []Level {
	out := make([]Level, len(ladder))
	copy(out, ladder[:])
	return out
}

// ForHeight returns the highest level whose height does not exceed height.
// The boolean is false when height is below the lowest tier.
func ForHeight(height int) (Level, bool) {
	for _, l := range ladder {
		if height >= l.Height {
			return l, true
		}
	}
	return Level{}, false
}

// ByLabel looks a level up by its label.
func ByLabel(label string) (Level, bool) {
	for _, l := range ladder {
		if l.Label == label {
			return l, true
		}
	}
	return Level{}, false
}

// AtOrBelow returns level followed by every lower tier, highest first.
// An unknown level yields nil.
func AtOrBelow(level Level) []Level {
	for i, l := range ladder {
		if l == level {
			out := make([]Level, len(ladder)-i)
			copy(out, ladder[i:])
			return out
		}
	}
	return nil
}
