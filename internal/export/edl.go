// Package export renders scene selections as CMX 3600 edit decision
// lists for cutting-room handoff.
package export

import (
	"fmt"
	"math"
	"strings"
)

// Clip is one EDL event: a scene interval with the source file's frame
// rate and display name.
type Clip struct {
	Name  string
	Path  string
	Start float64
	End   float64
	FPS   float64
}

const defaultFPS = 29.97

// Generate renders the clips as a CMX 3600 EDL. Source timecode comes
// from the clip interval at its own frame rate; record timecode
// accumulates from zero in selection order.
func Generate(title string, clips []Clip) string {
	if title == "" {
		title = "cinedex export"
	}

	lines := []string{
		fmt.Sprintf("TITLE: %s", title),
		"FCM: NON-DROP FRAME",
		"",
	}

	recordOffset := 0.0
	for i, clip := range clips {
		fps := clip.FPS
		if fps <= 0 {
			fps = defaultFPS
		}
		duration := clip.End - clip.Start
		if duration < 0 {
			duration = 0
		}

		srcIn := secondsToTimecode(clip.Start, fps)
		srcOut := secondsToTimecode(clip.End, fps)
		recIn := secondsToTimecode(recordOffset, fps)
		recOut := secondsToTimecode(recordOffset+duration, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", clip.Path),
		)

		recordOffset += duration
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// secondsToTimecode formats seconds as HH:MM:SS:FF at the given frame
// rate, rounded to whole frames.
func secondsToTimecode(seconds, fps float64) string {
	rate := int(math.Round(fps))
	if rate <= 0 {
		rate = 30
	}
	totalFrames := int(math.Round(seconds * float64(rate)))
	frames := totalFrames % rate
	totalSeconds := totalFrames / rate
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
