package snapcatalog

import (
	"bytes"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

// CaptureMetadata holds the EXIF/XMP capture time of a screenshot.
type CaptureMetadata struct {
	Captured time.Time
}

// exifDateLayout is the EXIF DateTime format.
const exifDateLayout = "2006:01:02 15:04:05"

// wantedTags maps (source, tag-name) → true for every tag we care about.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"DateTimeOriginal": true,
		"DateTime":         true,
	},
	imagemeta.XMP: {
		"DateCreated": true,
		"CreateDate":  true,
	},
}

// imageFormats maps media types to the formats imagemeta can read.
var imageFormats = map[string]imagemeta.ImageFormat{
	"image/jpeg": imagemeta.JPEG,
	"image/png":  imagemeta.PNG,
	"image/webp": imagemeta.WebP,
}

// ExtractCaptureMetadata parses EXIF/XMP capture fields from raw image bytes.
// Returns nil if the data is empty, the format is unsupported, or nothing was
// found. Never returns an error.
func ExtractCaptureMetadata(data []byte, mediaType string) *CaptureMetadata {
	if len(data) == 0 {
		return nil
	}
	format, ok := imageFormats[mediaType]
	if !ok {
		return nil
	}

	meta := &CaptureMetadata{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := wantedTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			handleCaptureTag(meta, ti, &found)
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}

	return meta
}

// handleCaptureTag sets the capture time from an EXIF or XMP date tag.
// DateTimeOriginal wins over DateTime when both are present.
func handleCaptureTag(meta *CaptureMetadata, ti imagemeta.TagInfo, found *bool) {
	switch ti.Tag {
	case "DateTimeOriginal", "DateCreated", "CreateDate":
		if t := tagValueTime(ti.Value); !t.IsZero() {
			meta.Captured = t
			*found = true
		}
	case "DateTime":
		if t := tagValueTime(ti.Value); !t.IsZero() && meta.Captured.IsZero() {
			meta.Captured = t
			*found = true
		}
	}
}

// tagValueTime parses EXIF ("2006:01:02 15:04:05") and XMP (RFC 3339) dates.
func tagValueTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	s := strings.TrimSpace(tagValueString(v))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{exifDateLayout, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimRight(val, "\x00")
	case []byte:
		return strings.TrimRight(string(val), "\x00")
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
