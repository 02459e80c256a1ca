package transcode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// imageFormats maps normalized output format extensions to imaging encoders.
var imageFormats = map[string]imaging.Format{
	"jpg": imaging.JPEG,
	"png": imaging.PNG,
	"gif": imaging.GIF,
}

// Blurhash component counts. 4x3 gives a recognizable placeholder at a
// string length that fits a VARCHAR(100) column.
const (
	blurhashXComponents = 4
	blurhashYComponents = 3
)

// ImageTranscoder implements simplemedia.Transcoder for still images using
// the imaging package. Video and audio formats pass through unchanged;
// wire a dedicated transcoder for those when real transcoding is needed.
type ImageTranscoder struct{}

// New creates a new image transcoder
func New() *ImageTranscoder {
	return &ImageTranscoder{}
}

func (t *ImageTranscoder) Transform(ctx context.Context, input []byte, opts simplemedia.TransformOptions) (*simplemedia.TransformResult, error) {
	format, ok := imageFormats[opts.Format]
	if !ok {
		// Passthrough for formats the image pipeline does not handle.
		return &simplemedia.TransformResult{Data: input}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", simplemedia.ErrTransformFailed, err)
	}

	if opts.ExactFit {
		// Crop-to-fill so avatars and banners land at exact dimensions.
		img = imaging.Fill(img, opts.Width, opts.Height, imaging.Center, imaging.Lanczos)
	} else if opts.Width > 0 && opts.Height > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > opts.Width || bounds.Dy() > opts.Height {
			img = imaging.Fit(img, opts.Width, opts.Height, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("%w: %v", simplemedia.ErrTransformFailed, err)
	}

	hash, err := blurhash.Encode(blurhashXComponents, blurhashYComponents, img)
	if err != nil {
		// A missing placeholder should not fail the transform.
		hash = ""
	}

	bounds := img.Bounds()
	return &simplemedia.TransformResult{
		Data:     buf.Bytes(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Blurhash: hash,
	}, nil
}
