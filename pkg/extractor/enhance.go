package extractor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// minEnhanceSide is the smallest side length left unscaled before enhancement
const minEnhanceSide = 300

// EnhancePage prepares a rendered page for OCR: upscale tiny renders, then
// grayscale, raise contrast and sharpen. The result is PNG encoded.
func EnhancePage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < minEnhanceSide || bounds.Dy() < minEnhanceSide {
		img = imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	contrast := imaging.AdjustContrast(gray, 10)
	sharp := imaging.Sharpen(contrast, 1.1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, sharp, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding enhanced image: %w", err)
	}
	return buf.Bytes(), nil
}
