package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"

	_ "image/gif"                 // gif sources decode via image.Decode
	_ "golang.org/x/image/webp"   // webp sources decode via image.Decode
)

// StdTransformer is the default image transformer: jpeg and png through the
// standard encoders, webp through chai2010/webp (the standard library has
// no webp encoder).
type StdTransformer struct{}

func (StdTransformer) Transform(data []byte, format string, quality int) ([]byte, error) {
	img, sourceFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding source image: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case "png":
		// png is lossless; quality is ignored
		err = png.Encode(&buf, img)
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		return nil, fmt.Errorf("unsupported target format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s as %s: %w", sourceFormat, format, err)
	}
	return buf.Bytes(), nil
}
