package snapcatalog

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// dedupThreshold is the Hamming distance between two dHash values below
// which screenshots are considered the same.
const dedupThreshold = 5

// dedupFilter drops repeated screenshots within one batch using perceptual
// hashing. Images that cannot be decoded or hashed are always kept.
type dedupFilter struct {
	hashes []*goimagehash.ImageHash
}

// isDuplicate returns true if data decodes to an image perceptually identical
// to one seen before. Unique images are remembered.
func (d *dedupFilter) isDuplicate(data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	for _, h := range d.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < dedupThreshold {
			return true
		}
	}

	d.hashes = append(d.hashes, hash)
	return false
}
