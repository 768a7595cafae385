package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SingleClip(t *testing.T) {
	edl := Generate("Project One", []Clip{
		{Name: "intro.mp4", Path: "/media/intro.mp4", Start: 0, End: 2, FPS: 30},
	})

	assert.Contains(t, edl, "TITLE: Project One")
	assert.Contains(t, edl, "FCM: NON-DROP FRAME")
	assert.Contains(t, edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00")
	assert.Contains(t, edl, "* FROM CLIP NAME:  intro.mp4")
	assert.Contains(t, edl, "* MEDIA PATH:  /media/intro.mp4")
}

func TestGenerate_RecordTimecodeAccumulates(t *testing.T) {
	edl := Generate("Multi", []Clip{
		{Name: "a.mp4", Path: "/a.mp4", Start: 0, End: 1, FPS: 30},
		{Name: "b.mp4", Path: "/b.mp4", Start: 10, End: 11.5, FPS: 30},
	})

	// Second event's source timecode comes from the clip, record
	// timecode continues where the first clip left off.
	assert.Contains(t, edl, "001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00")
	assert.Contains(t, edl, "002  AX       V     C        00:00:10:00 00:00:11:15 00:00:01:00 00:00:02:15")
}

func TestGenerate_DefaultsTitleAndFPS(t *testing.T) {
	edl := Generate("", []Clip{
		{Name: "x.mp4", Path: "/x.mp4", Start: 0, End: 1},
	})

	assert.Contains(t, edl, "TITLE: cinedex export")
	// 29.97 rounds to a 30-frame counting rate.
	assert.Contains(t, edl, "00:00:01:00")
}

func TestGenerate_EmptySelection(t *testing.T) {
	edl := Generate("Empty", nil)

	lines := strings.Split(edl, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "TITLE: Empty", lines[0])
	assert.Equal(t, "FCM: NON-DROP FRAME", lines[1])
	assert.NotContains(t, edl, "001")
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     float64
		want    string
	}{
		{name: "zero", seconds: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", seconds: 1, fps: 30, want: "00:00:01:00"},
		{name: "half second", seconds: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "one minute", seconds: 60, fps: 30, want: "00:01:00:00"},
		{name: "one hour", seconds: 3600, fps: 30, want: "01:00:00:00"},
		{name: "ntsc rounds to 30", seconds: 1, fps: 29.97, want: "00:00:01:00"},
		{name: "pal half second", seconds: 0.5, fps: 25, want: "00:00:00:13"},
		{name: "bad fps falls back", seconds: 1, fps: 0, want: "00:00:01:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, secondsToTimecode(tc.seconds, tc.fps))
		})
	}
}
