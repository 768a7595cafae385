package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseShowinfoTimes(t *testing.T) {
	stderr := []byte(`
[Parsed_showinfo_1 @ 0x55e] n:   0 pts:  48048 pts_time:2.002   duration_time:0.033367
[Parsed_showinfo_1 @ 0x55e] n:   1 pts: 192192 pts_time:8.008   duration_time:0.033367
[Parsed_showinfo_1 @ 0x55e] n:   2 pts: 480480 pts_time:20.02   duration_time:0.033367
frame=  603 fps= 58 q=-0.0 Lsize=N/A time=00:00:20.11 bitrate=N/A speed=1.95x
`)

	got := parseShowinfoTimes(stderr)
	assert.Equal(t, []float64{2.002, 8.008, 20.02}, got)
}

func TestParseShowinfoTimes_SortsAndDeduplicates(t *testing.T) {
	stderr := []byte(`
[Parsed_showinfo_1 @ 0x55e] pts_time:8.0
[Parsed_showinfo_1 @ 0x55e] pts_time:2.0
[Parsed_showinfo_1 @ 0x55e] pts_time:2.05
[Parsed_showinfo_1 @ 0x55e] pts_time:8.4
`)

	// 2.05 sits within the 100 ms merge window of 2.0 and collapses.
	got := parseShowinfoTimes(stderr)
	assert.Equal(t, []float64{2.0, 8.0, 8.4}, got)
}

func TestParseShowinfoTimes_IgnoresUnrelatedLines(t *testing.T) {
	stderr := []byte(`
Input #0, mov,mp4, from '/media/a.mp4':
  Duration: 00:01:00.00, start: 0.000000, bitrate: 4000 kb/s
frame=  100 fps=0.0 q=-0.0 size=N/A time=00:00:04.00 pts_time:9.9
`)

	assert.Empty(t, parseShowinfoTimes(stderr))
}

func TestFrameFormatContentType(t *testing.T) {
	assert.Equal(t, "image/webp", FrameFormatWebP.ContentType())
	assert.Equal(t, "image/jpeg", FrameFormatJPG.ContentType())
}
