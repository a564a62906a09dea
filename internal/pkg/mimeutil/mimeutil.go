package mimeutil

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackType = "application/octet-stream"

// Detector maps a file on disk to a content-type string. It is only used
// for response headers, never for authorization decisions.
type Detector interface {
	Detect(path string) string
}

type sniffDetector struct{}

func NewDetector() Detector {
	return sniffDetector{}
}

func (sniffDetector) Detect(path string) string {
	if mtype, err := mimetype.DetectFile(path); err == nil {
		return mtype.String()
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return fallbackType
}
