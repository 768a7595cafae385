package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrUnreadable marks containers ffprobe cannot make sense of. Jobs
// fail with this verbatim rather than guessing at attributes.
var ErrUnreadable = errors.New("unreadable media container")

const probeTimeout = 30 * time.Second

// ProbeResult holds the container attributes enrichment stores on the
// file row.
type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	FPS         float64
	Codec       string
	AudioTracks int
}

// Prober shells out to ffprobe.
type Prober struct {
	ffprobePath string
}

func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobePath: ffprobePath}
}

func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-hide_banner",
		"-loglevel", "error",
		"-show_entries", "stream=codec_type,codec_name,width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrUnreadable, path, err)
	}

	result, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return result, nil
}

type probeJSON struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var doc probeJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	haveVideo := false
	for _, stream := range doc.Streams {
		switch stream.CodecType {
		case "video":
			if !haveVideo {
				haveVideo = true
				result.Width = stream.Width
				result.Height = stream.Height
				result.Codec = stream.CodecName
				result.FPS = parseFrameRate(stream.RFrameRate)
			}
		case "audio":
			result.AudioTracks++
		}
	}
	if !haveVideo {
		return nil, fmt.Errorf("no video stream")
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(doc.Format.Duration), 64)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("no usable duration")
	}
	result.Duration = duration
	return result, nil
}

// parseFrameRate converts ffprobe's "num/den" fraction, 0 when the
// field is absent or degenerate.
func parseFrameRate(raw string) float64 {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		if fps, err := strconv.ParseFloat(raw, 64); err == nil {
			return fps
		}
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
