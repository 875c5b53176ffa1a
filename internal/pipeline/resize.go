package pipeline

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// resizeImageFile rescales the image at path to the target dimensions,
// overwriting it in place. An image already at the target size is left
// untouched.
func resizeImageFile(path string, width, height int) error {
	src, format, err := decodeImageFile(path)
	if err != nil {
		return err
	}

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return encodeImageFile(path, dst, format)
}

func decodeImageFile(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	src, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return src, format, nil
}

func encodeImageFile(path string, img image.Image, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write resized image: %w", err)
	}
	defer file.Close()

	switch format {
	case "png":
		err = png.Encode(file, img)
	case "gif":
		err = gif.Encode(file, img, nil)
	default:
		err = jpeg.Encode(file, img, nil)
	}
	if err != nil {
		return fmt.Errorf("encode resized image: %w", err)
	}
	return nil
}
