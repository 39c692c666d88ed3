package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForHeight(t *testing.T) {
	tests := []struct {
		name   string
		height int
		want   string
		found  bool
	}{
		{"BelowLowest", 359, "", false},
		{"Zero", 0, "", false},
		{"ExactLowest", 360, "360p", true},
		{"Between360And480", 400, "360p", true},
		{"Exact720", 720, "720p", true},
		{"Exact1080", 1080, "1080p", true},
		{"Odd1088", 1088, "1080p", true},
		{"Exact2160", 2160, "2160p", true},
		{"AboveHighest", 4320, "2160p", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ForHeight(tt.height)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Label)
		})
	}
}

func TestForHeightIsMonotonic(t *testing.T) {
	prevHeight := -1
	prevFound := false
	for h := 0; h <= 2400; h++ {
		l, ok := ForHeight(h)
		if prevFound {
			require.True(t, ok, "height %d lost its level", h)
		}
		if ok {
			require.GreaterOrEqual(t, l.Height, prevHeight, "height %d", h)
			require.LessOrEqual(t, l.Height, h)
			prevHeight = l.Height
		}
		prevFound = ok
	}
}

func TestAtOrBelow(t *testing.T) {
	for _, q := range Ladder() {
		t.Run(q.Label, func(t *testing.T) {
			got := AtOrBelow(q)
			require.NotEmpty(t, got)
			assert.Equal(t, q, got[0])
			assert.Equal(t, "360p", got[len(got)-1].Label)
			for i, l := range got {
				assert.LessOrEqual(t, l.Height, q.Height)
				if i > 0 {
					assert.Less(t, l.Height, got[i-1].Height)
				}
			}
		})
	}
}

func TestAtOrBelow1080(t *testing.T) {
	l, ok := ByLabel("1080p")
	require.True(t, ok)

	var labels []string
	for _, q := range AtOrBelow(l) {
		labels = append(labels, q.Label)
	}
	assert.Equal(t, []string{"1080p", "720p", "480p", "360p"}, labels)
}

func TestAtOrBelowUnknownLevel(t *testing.T) {
	assert.Nil(t, AtOrBelow(Level{Label: "999p", Height: 999}))
}

func TestLadderIsACopy(t *testing.T) {
	l := Ladder()
	l[0].Label = "mutated"
	assert.Equal(t, "2160p", Ladder()[0].Label)
}

func TestLevelFormatting(t *testing.T) {
	l, ok := ByLabel("480p")
	require.True(t, ok)
	assert.Equal(t, "854x480", l.Resolution())
	assert.Equal(t, 1200000, l.Bandwidth())
	assert.Equal(t, "480p", l.String())
}
