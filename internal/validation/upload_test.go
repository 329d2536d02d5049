package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)
	pdfBytes = []byte("%PDF-1.7\n%fake document body")
)

func TestValidateUploadAcceptsPDFAndImages(t *testing.T) {
	constraints := UploadConstraints{MaxSize: 5 << 20}

	contentType, err := ValidateUpload(pdfBytes, constraints)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)

	contentType, err = ValidateUpload(pngBytes, constraints)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
}

func TestValidateUploadRejectsOtherTypes(t *testing.T) {
	constraints := UploadConstraints{MaxSize: 5 << 20}

	_, err := ValidateUpload([]byte("plain text notes"), constraints)
	assert.Error(t, err)

	_, err = ValidateUpload([]byte("<html><body>nope</body></html>"), constraints)
	assert.Error(t, err)
}

func TestValidateUploadRejectsOversized(t *testing.T) {
	constraints := UploadConstraints{MaxSize: 5 << 20}

	big := make([]byte, 6<<20)
	copy(big, pngBytes)

	_, err := ValidateUpload(big, constraints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestValidateUploadSniffsContentNotHeader(t *testing.T) {
	// The declared filename/header never reaches the validator; a text
	// payload is rejected no matter what it is called.
	_, err := ValidateUpload([]byte("not really a pdf"), UploadConstraints{MaxSize: 1 << 20})
	assert.Error(t, err)
}
