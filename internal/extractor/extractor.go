// Package extractor turns free text, images and classification responses into normalized transactions.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"catat-worker/internal/apperr"
	"catat-worker/internal/classifier"
	"catat-worker/internal/models"
)

// minImageBytes smallest payload accepted as a photo
const minImageBytes = 750

var jpegSignature = []byte{0xFF, 0xD8, 0xFF}

// Classifier the classification service boundary
type Classifier interface {
	ClassifyText(ctx context.Context, f models.Feature, text string) (*classifier.Response, error)
	ClassifyImage(ctx context.Context, f models.Feature, image []byte, caption string) (*classifier.Response, error)
}

// Result of one extraction. Empty Transactions with a Note is a valid "nothing found" outcome.
type Result struct {
	Transactions []models.Transaction
	Note         string
	// Skipped malformed image items left out of the batch
	Skipped int
	// Pending the text was accepted as context for a follow-up image
	Pending bool
}

func validateImage(image []byte, requireJPEG bool) error {
	if len(image) < minImageBytes {
		return apperr.Validation("Data gambar tidak valid atau terlalu kecil.")
	}
	if requireJPEG && !bytes.HasPrefix(image, jpegSignature) {
		return apperr.Validation("Gambar tidak terdeteksi sebagai JPEG. Harap kirim gambar dengan format yang benar.")
	}
	return nil
}

// serviceFailure maps classifier errors to an ExtractionError with hint appended
func serviceFailure(err error, hint string) error {
	var se *classifier.ServiceError
	switch {
	case errors.As(err, &se):
		return apperr.Extraction(fmt.Sprintf("Gagal memproses pesan: %s\n\n%s", se.Detail, hint), err)
	case errors.Is(err, classifier.ErrUnavailable):
		return apperr.Extraction("Layanan AI sedang tidak dapat dihubungi. Silakan coba lagi nanti.\n\n"+hint, err)
	default:
		return apperr.Extraction("Gagal memproses pesan.\n\n"+hint, err)
	}
}

// firstErr returns the first non-nil error
func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
