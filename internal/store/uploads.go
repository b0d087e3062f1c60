package store

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/superpixel-tools/internal/fsutil"
	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// AllowedExtensions lists the upload extensions the store accepts.
var AllowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true,
	".gif": true, ".webp": true,
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Upload describes a stored image.
type Upload struct {
	ImageID string `json:"image_id"`

	// Filename is the stored name to use for segmentation. For TIFF uploads
	// it names the PNG preview rather than the original.
	Filename string `json:"filename"`

	Path string `json:"path"`
}

// SecureFilename reduces name to a safe base name: directories are dropped,
// runs of characters other than letters, digits, '.', '_' and '-' become '_',
// and leading dots are removed.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	return strings.TrimLeft(name, "._")
}

// ImageIDOf returns the image id prefix of a stored filename.
func ImageIDOf(filename string) string {
	id, _, _ := strings.Cut(filename, "_")
	return id
}

// SaveUpload stores the image read from r under a fresh image id.
//
// TIFF uploads are additionally converted to PNG and the PNG becomes the
// upload's Filename. Unsupported extensions wrap superpixel.ErrInput.
func (s *Store) SaveUpload(name string, r io.Reader) (*Upload, error) {
	clean := SecureFilename(name)
	ext := strings.ToLower(filepath.Ext(clean))
	if clean == "" || clean == ext {
		return nil, superpixel.InputError("empty filename")
	}
	if !AllowedExtensions[ext] {
		return nil, superpixel.InputError("unsupported file type %q", ext)
	}

	id := uuid.NewString()
	saveName := id + "_" + clean
	savePath := filepath.Join(s.root, UploadsDir, saveName)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := fsutil.WriteFileAtomic(savePath, data); err != nil {
		return nil, err
	}

	if ext == ".tif" || ext == ".tiff" {
		img, err := imaging.Decode(savePath)
		if err != nil {
			_ = os.Remove(savePath)
			return nil, err
		}
		saveName += ".png"
		if err := s.writePNG(filepath.Join(s.root, UploadsDir, saveName), img); err != nil {
			return nil, err
		}
		savePath = filepath.Join(s.root, UploadsDir, saveName)
	}

	s.logger.Info().Str("image_id", id).Str("filename", saveName).Int("bytes", len(data)).Msg("stored upload")
	return &Upload{ImageID: id, Filename: saveName, Path: savePath}, nil
}

// ImportFile copies the image at path into the store.
func (s *Store) ImportFile(path string) (*Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, superpixel.NotFoundError("image %s", path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return s.SaveUpload(filepath.Base(path), f)
}

// UploadPath resolves a stored filename to its path. The file must exist.
func (s *Store) UploadPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", superpixel.InputError("invalid image filename %q", filename)
	}
	path := filepath.Join(s.root, UploadsDir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", superpixel.NotFoundError("image %s", filename)
		}
		return "", fmt.Errorf("failed to stat image: %w", err)
	}
	return path, nil
}

func (s *Store) writePNG(path string, img image.Image) error {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data)
}

// SaveMask writes a class mask image for imageID and returns its path.
func (s *Store) SaveMask(imageID string, mask *image.Gray) (string, error) {
	if err := checkID("image id", imageID); err != nil {
		return "", err
	}
	if mask == nil {
		return "", superpixel.InputError("mask is nil")
	}
	path := filepath.Join(s.root, MasksDir, imageID+"_mask.png")
	if err := s.writePNG(path, mask); err != nil {
		return "", err
	}
	return path, nil
}
