//go:build !linux

package scanner

import (
	"io/fs"
	"time"
)

func fileCreatedAt(info fs.FileInfo) *time.Time {
	return nil
}
