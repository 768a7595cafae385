//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// fileCreatedAt approximates creation time with the inode change time,
// the closest thing POSIX offers.
func fileCreatedAt(info fs.FileInfo) *time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	return &t
}
