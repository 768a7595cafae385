package scanner

import (
	"path/filepath"
	"strings"
)

// videoExtensions is the fixed set of container extensions the scanner
// recognizes, matched case-insensitively.
var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".3gp": {}, ".3g2": {},
	".avi": {}, ".mkv": {}, ".webm": {}, ".mxf": {}, ".wmv": {},
	".asf": {}, ".flv": {}, ".ts": {}, ".m2ts": {}, ".mts": {},
	".mpg": {}, ".mpeg": {}, ".vob": {}, ".ogv": {}, ".rm": {},
	".rmvb": {}, ".wtv": {}, ".dv": {}, ".mj2": {}, ".bik": {}, ".bk2": {},
}

func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := videoExtensions[ext]
	return ok
}
