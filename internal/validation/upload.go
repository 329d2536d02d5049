package validation

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// UploadConstraints defines validation rules for generation input files:
// PDFs and anything in the image/* family, up to MaxSize bytes.
type UploadConstraints struct {
	MaxSize int64
}

// ValidateUpload checks size first, then the content type sniffed from
// the bytes themselves (magic numbers, cannot be faked by the declared
// Content-Type header). Returns the detected type for storage.
func ValidateUpload(data []byte, constraints UploadConstraints) (string, error) {
	if int64(len(data)) > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	// http.DetectContentType reads max 512 bytes to determine MIME type
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detectedType := http.DetectContentType(head)

	if !allowedType(detectedType) {
		return "", fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	return detectedType, nil
}

// allowedType accepts application/pdf and any image/* type.
func allowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/pdf" {
		return true
	}
	return strings.HasPrefix(mediaType, "image/")
}
