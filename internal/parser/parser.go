package parser

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions lists file extensions accepted for upload.
var SupportedExtensions = map[string]bool{
	".pdf": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
