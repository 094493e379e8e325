package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxUploadBytes is the hard cap for a single uploaded file.
const MaxUploadBytes = 20 << 20 // 20MB

// Kind distinguishes the two supported media kinds.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Input is validated, encoded media ready for the AI gateway.
// The DataURI embeds the raw bytes; it is never written to disk.
type Input struct {
	DataURI  string
	FileName string
	MimeType string
	Kind     Kind
}

// ErrInvalidInput marks user-correctable validation failures.
var ErrInvalidInput = errors.New("invalid media")

var allowedTypes = map[Kind]map[string]struct{}{
	KindImage: {
		"image/png":  {},
		"image/jpeg": {},
	},
	KindVideo: {
		"video/mp4": {},
	},
}

// Ingest validates and encodes a single uploaded file for the given kind.
// The MIME type is sniffed from content, not taken from the file name or
// the client-declared header.
func Ingest(kind Kind, fileName string, r io.Reader) (Input, error) {
	allowed, ok := allowedTypes[kind]
	if !ok {
		return Input{}, fmt.Errorf("%w: unknown media kind %q", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(fileName) == "" {
		return Input{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Input{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return Input{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return Input{}, fmt.Errorf("%w: file exceeds %dMB limit", ErrInvalidInput, MaxUploadBytes>>20)
	}

	mimeType := sniffMimeType(data)
	if _, ok := allowed[mimeType]; !ok {
		return Input{}, fmt.Errorf("%w: %s is not an accepted %s type", ErrInvalidInput, mimeType, kind)
	}

	return Input{
		DataURI:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		FileName: fileName,
		MimeType: mimeType,
		Kind:     kind,
	}, nil
}

func sniffMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	// DetectContentType appends parameters for some types (e.g. charset).
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
