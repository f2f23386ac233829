// Package media classifies input files by extension.
package media

import (
	"path/filepath"
	"slices"
	"strings"
)

// Kind says how a file will be decoded.
type Kind int

const (
	Unsupported Kind = iota
	Native           // decoded in-process
	FFmpeg           // decoded through an ffmpeg subprocess
)

var audioExts = map[string]Kind{
	".mp3":  Native,
	".wav":  Native,
	".flac": Native,
	".ogg":  Native,
	".aac":  FFmpeg,
	".m4a":  FFmpeg,
	".m4b":  FFmpeg,
	".opus": FFmpeg,
	".wma":  FFmpeg,
	".aiff": FFmpeg,
}

// Classify returns the Kind for path's extension.
func Classify(path string) Kind {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedExt returns true if the extension is a supported audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)] != Unsupported
}

// IsNativeExt returns true if the extension has a pure Go decoder.
func IsNativeExt(ext string) bool {
	return audioExts[strings.ToLower(ext)] == Native
}

// SupportedExtsList returns a human-readable list of supported formats,
// native ones first.
func SupportedExtsList() string {
	var native, viaFFmpeg []string
	for ext, kind := range audioExts {
		if kind == Native {
			native = append(native, ext)
		} else {
			viaFFmpeg = append(viaFFmpeg, ext)
		}
	}
	slices.Sort(native)
	slices.Sort(viaFFmpeg)
	return strings.Join(native, ", ") + " (with ffmpeg: " + strings.Join(viaFFmpeg, ", ") + ")"
}
