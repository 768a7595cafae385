package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "audio", "codec_name": "ac3"},
			{"codec_type": "subtitle", "codec_name": "subrip"}
		],
		"format": {"duration": "3621.504000"}
	}`)

	result, err := parseProbeOutput(data)
	require.NoError(t, err)

	assert.Equal(t, 1920, result.Width)
	assert.Equal(t, 1080, result.Height)
	assert.Equal(t, "h264", result.Codec)
	assert.InDelta(t, 29.97, result.FPS, 0.001)
	assert.Equal(t, 2, result.AudioTracks)
	assert.Equal(t, 3621.504, result.Duration)
}

func TestParseProbeOutput_FirstVideoStreamWins(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720, "r_frame_rate": "25/1"},
			{"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 180, "r_frame_rate": "1/1"}
		],
		"format": {"duration": "10"}
	}`)

	result, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.Equal(t, "h264", result.Codec)
	assert.Equal(t, 1280, result.Width)
}

func TestParseProbeOutput_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "ffprobe: permission denied"},
		{name: "no video stream", data: `{"streams": [{"codec_type": "audio"}], "format": {"duration": "10"}}`},
		{name: "missing duration", data: `{"streams": [{"codec_type": "video", "width": 1, "height": 1}], "format": {}}`},
		{name: "zero duration", data: `{"streams": [{"codec_type": "video", "width": 1, "height": 1}], "format": {"duration": "0"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "30000/1001", want: 29.97002997},
		{raw: "25/1", want: 25},
		{raw: "24", want: 24},
		{raw: "0/0", want: 0},
		{raw: "", want: 0},
		{raw: "garbage", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.InDelta(t, tc.want, parseFrameRate(tc.raw), 1e-6)
		})
	}
}
