package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

var logger = log.New("loaders")

// LoadImage loads a PNG, JPEG, BMP, TIFF or WebP file as an image texture
func LoadImage(filename string) (*material.ImageTexture, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	tex, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tex, nil
}

// DecodeImage decodes any registered image format into an image texture.
// Rows are stored top to bottom; channels are linear values in [0, 1].
func DecodeImage(r io.Reader) (*material.ImageTexture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	logger.Debugf("decoded %s image %dx%d", format, width, height)

	pixels := make([]core.Vec4, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// RGBA returns alpha-premultiplied uint32 in [0, 65535]
			r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			pixels[y*width+x] = core.NewVec4(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
				float64(a)/65535.0,
			)
		}
	}

	return material.NewImageTexture(width, height, pixels), nil
}
