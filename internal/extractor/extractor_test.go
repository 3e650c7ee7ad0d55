package extractor

import (
	"bytes"
	"context"
	"time"

	"catat-worker/internal/classifier"
	"catat-worker/internal/models"
)

// fakeClassifier canned responses per modality; records the last call
type fakeClassifier struct {
	textResp  *classifier.Response
	textErr   error
	imageResp *classifier.Response
	imageErr  error

	calls       int
	lastFeature models.Feature
	lastCaption string
}

func (f *fakeClassifier) ClassifyText(_ context.Context, feat models.Feature, _ string) (*classifier.Response, error) {
	f.calls++
	f.lastFeature = feat
	return f.textResp, f.textErr
}

func (f *fakeClassifier) ClassifyImage(_ context.Context, feat models.Feature, _ []byte, caption string) (*classifier.Response, error) {
	f.calls++
	f.lastFeature = feat
	f.lastCaption = caption
	return f.imageResp, f.imageErr
}

var (
	jakarta  = time.FixedZone("WIB", 7*60*60)
	fixedNow = func() time.Time { return time.Date(2024, 5, 10, 9, 30, 0, 0, jakarta) }
)

// jpegImage a payload that passes the size and signature checks
func jpegImage() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, minImageBytes)...)
}
