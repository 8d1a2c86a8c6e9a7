package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// textureExtensions are tried in order when a texture name has no extension
var textureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

// LoadTexture decodes the texture called name from fsys. Names without an extension
// are resolved against the supported image formats.
func LoadTexture(fsys fs.FS, name string) (image.Image, string, error) {
	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range textureExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		f, err := fsys.Open(c)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to open texture %s: %w", c, err)
		}
		img, format, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode texture %s: %w", c, err)
		}
		return img, format, nil
	}

	return nil, "", fmt.Errorf("texture %s: %w", name, fs.ErrNotExist)
}
