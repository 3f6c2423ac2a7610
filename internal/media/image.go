package media

import (
	"image"
	"os"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	// Header decoders for the dimension probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Dimensions holds image pixel dimensions.
type Dimensions struct {
	Width  int
	Height int
}

// ProbeDimensions reads only the image header to get pixel dimensions,
// without decoding pixel data. Returns an error for formats without a
// registered decoder or for non-image files; callers treat that as
// "dimensions unknown".
func ProbeDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: config.Width, Height: config.Height}, nil
}
