package update

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtckit/mtckit/internal/container"
	"github.com/mtckit/mtckit/internal/logging"
	"github.com/mtckit/mtckit/internal/profile"
)

// StagedImage is the firmware the server is prepared to deliver.
type StagedImage struct {
	// Name and Version come from the MTC header when the image parses
	// under the given profile, otherwise from the file name
	Name    string
	Version string

	SHA256 string

	data []byte
}

// Size returns the image length in bytes.
func (s *StagedImage) Size() int {
	return len(s.data)
}

// Stage prepares data for delivery. A parseable MTC image contributes
// its own metadata to the offer; anything else is staged as an opaque
// blob under the fallback name, since delivering deliberately malformed
// images is a legitimate use of this server.
func Stage(fallbackName string, data []byte, prof *profile.Profile) *StagedImage {
	sum := sha256.Sum256(data)
	staged := &StagedImage{
		Name:   fallbackName,
		SHA256: hex.EncodeToString(sum[:]),
		data:   data,
	}

	if img, err := container.Parse(data, prof); err == nil {
		staged.Name = img.Header.ModuleName
		staged.Version = img.Header.VersionString()
	} else {
		logging.LogRawBytes("staged image did not parse, serving as opaque blob", data)
	}
	return staged
}

// StageFile loads and stages an image from disk.
func StageFile(path string, prof *profile.Profile) (*StagedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read firmware image: %w", err)
	}
	return Stage(filepath.Base(path), data, prof), nil
}
