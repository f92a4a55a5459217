package snapcatalog

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	_ "golang.org/x/image/webp"
)

// ValidateImage checks that img is non-empty, has an image/* media type and,
// when its dimensions can be decoded, is at least cfg.MinImageWidth wide.
func (cfg *Config) ValidateImage(img Image) bool {
	cfg.defaults()

	if len(img.Data) == 0 || !strings.HasPrefix(img.MediaType, "image/") {
		return false
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		// Undecodable dimensions (HEIC) pass; the vision model decides.
		return true
	}

	if imgCfg.Width < cfg.MinImageWidth {
		slog.Debug("snapcatalog: too narrow", "file", img.Name, "width", imgCfg.Width, "min", cfg.MinImageWidth)
		return false
	}

	return true
}
