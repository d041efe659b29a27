package preview

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

type Preview struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type Store interface {
	Put(ctx context.Context, id string, p *Preview) error
	Get(ctx context.Context, id string) (*Preview, error)
	Delete(ctx context.Context, id string) error
}

// MakePreview downsizes decodable images to fit maxWidth x maxHeight.
// Anything imaging cannot decode is kept as is with its sniffed content type.
func MakePreview(data []byte, maxWidth, maxHeight int) (*Preview, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	mtype := mimetype.Detect(data)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return &Preview{ContentType: mtype.String(), Data: data}, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth && bounds.Dy() <= maxHeight {
		return &Preview{ContentType: mtype.String(), Data: data}, nil
	}

	resized := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return &Preview{ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}
