package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"time"
)

type FrameFormat string

const (
	FrameFormatWebP FrameFormat = "webp"
	FrameFormatJPG  FrameFormat = "jpg"
)

func (f FrameFormat) ContentType() string {
	if f == FrameFormatJPG {
		return "image/jpeg"
	}
	return "image/webp"
}

const (
	cutDetectTimeout = 10 * time.Minute
	frameGrabTimeout = 30 * time.Second
	audioTimeout     = 10 * time.Minute
)

// FFmpeg shells out to ffmpeg for cut detection, poster frames and
// audio extraction.
type FFmpeg struct {
	ffmpegPath string
}

func NewFFmpeg(ffmpegPath string) *FFmpeg {
	return &FFmpeg{ffmpegPath: ffmpegPath}
}

// DetectCuts decodes the file through the scene-change filter and
// returns ascending cut timestamps in seconds. Threshold is ffmpeg's
// 0..1 content-change score.
func (f *FFmpeg) DetectCuts(ctx context.Context, path string, threshold float64) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, cutDetectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner",
		"-i", path,
		"-vf", fmt.Sprintf("select='gt(scene,%s)',showinfo", strconv.FormatFloat(threshold, 'f', -1, 64)),
		"-an",
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("detect cuts %s: %w", path, err)
	}
	return parseShowinfoTimes(stderr.Bytes()), nil
}

var ptsTimeRe = regexp.MustCompile(`pts_time:([0-9]+(?:\.[0-9]+)?)`)

// parseShowinfoTimes pulls pts_time values out of showinfo stderr
// lines, sorted ascending with near-duplicates dropped.
func parseShowinfoTimes(stderr []byte) []float64 {
	var times []float64
	scanner := bufio.NewScanner(bytes.NewReader(stderr))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, []byte("Parsed_showinfo")) {
			continue
		}
		match := ptsTimeRe.FindSubmatch(line)
		if match == nil {
			continue
		}
		ts, err := strconv.ParseFloat(string(match[1]), 64)
		if err != nil {
			continue
		}
		times = append(times, ts)
	}
	sort.Float64s(times)

	var out []float64
	last := -1.0
	for _, ts := range times {
		if ts-last < 0.1 {
			continue
		}
		out = append(out, ts)
		last = ts
	}
	return out
}

// ExtractFrame grabs one frame at ts, scaled to width (height follows,
// even), encoded to format/quality, returned from ffmpeg's stdout.
func (f *FFmpeg) ExtractFrame(ctx context.Context, path string, ts float64, width int, format FrameFormat, quality int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, frameGrabTimeout)
	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
	}
	switch format {
	case FrameFormatJPG:
		args = append(args, "-c:v", "mjpeg", "-q:v", "2")
	default:
		args = append(args, "-c:v", "libwebp", "-quality", strconv.Itoa(quality))
	}
	args = append(args, "-f", "image2pipe", "pipe:1")

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := stderr.String(); msg != "" {
			slog.Warn("ffmpeg frame grab stderr", "path", path, "output", msg)
		}
		return nil, fmt.Errorf("extract frame %s@%.3f: %w", path, ts, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("extract frame %s@%.3f: empty output", path, ts)
	}
	return out, nil
}

// ExtractAudioWAV transcodes the first audio track to 16 kHz mono PCM
// WAV at outPath, the input format speech models expect.
func (f *FFmpeg) ExtractAudioWAV(ctx context.Context, path, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, audioTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner",
		"-loglevel", "warning",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			slog.Warn("ffmpeg audio extract stderr", "path", path, "output", msg)
		}
		return fmt.Errorf("extract audio %s: %w", path, err)
	}
	return nil
}
