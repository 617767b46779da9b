// Package media maps file names to the audio formats climpviz can decode.
package media

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format is a decodable audio container.
type Format int

const (
	MP3 Format = iota
	WAV
	FLAC
	OGG
)

func (f Format) String() string {
	switch f {
	case MP3:
		return "mp3"
	case WAV:
		return "wav"
	case FLAC:
		return "flac"
	case OGG:
		return "ogg"
	default:
		return "unknown"
	}
}

var ErrUnsupported = errors.New("unsupported format")

var audioExts = map[string]Format{
	".mp3":  MP3,
	".wav":  WAV,
	".flac": FLAC,
	".ogg":  OGG,
	".oga":  OGG,
}

// Detect returns the format implied by path's extension.
func Detect(path string) (Format, bool) {
	f, ok := audioExts[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsSupportedExt returns true if the extension is a supported playable media format.
func IsSupportedExt(ext string) bool {
	_, ok := audioExts[strings.ToLower(ext)]
	return ok
}

// SupportedExtsList returns a human-readable list of supported playable media formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}
