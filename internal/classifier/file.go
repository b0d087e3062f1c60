package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ironsheep/superpixel-tools/internal/fsutil"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// FormatVersion is written to every model file.
const FormatVersion = 1

// File is the on-disk form of a trained model.
type File struct {
	Version int      `json:"version"`
	Kind    string   `json:"kind"`
	Width   int      `json:"feature_width"`
	Fields  []string `json:"feature_fields"`
	Classes []string `json:"classes,omitempty"`

	// Accuracy is the validation accuracy measured at training time, if any.
	Accuracy float64 `json:"accuracy,omitempty"`

	Model json.RawMessage `json:"model"`
}

// Loaded is a decoded model file.
type Loaded struct {
	Model   Model
	Fields  []string
	Classes []string
}

// Save writes m to path together with the feature layout it was trained on.
// The file is replaced atomically.
func Save(path string, m Model, fields, classes []string, accuracy float64) error {
	if m == nil {
		return superpixel.InputError("model is nil")
	}
	if len(fields) != m.Width() {
		return superpixel.ConsistencyError("model expects %d features but %d field names were given", m.Width(), len(fields))
	}
	params, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}

	data, err := json.Marshal(File{
		Version:  FormatVersion,
		Kind:     m.Kind(),
		Width:    m.Width(),
		Fields:   fields,
		Classes:  classes,
		Accuracy: accuracy,
		Model:    params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode model file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Load reads a model file and checks that it was trained on the feature
// layout fields. A layout mismatch wraps superpixel.ErrConsistency; a missing
// file wraps superpixel.ErrNotFound.
func Load(path string, fields []string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, superpixel.NotFoundError("model %s", path)
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, superpixel.InputError("model %s is not a model file: %v", path, err)
	}
	if f.Version != FormatVersion {
		return nil, superpixel.ConsistencyError("model %s has format version %d, want %d", path, f.Version, FormatVersion)
	}
	if f.Width != len(fields) || !slices.Equal(f.Fields, fields) {
		return nil, superpixel.ConsistencyError("model %s was trained on %d features %v, current layout has %d", path, f.Width, f.Fields, len(fields))
	}

	decode, ok := Decoders[f.Kind]
	if !ok {
		return nil, superpixel.ConsistencyError("model %s has unknown kind %q", path, f.Kind)
	}
	m, err := decode(f.Model)
	if err != nil {
		return nil, err
	}
	if m.Width() != f.Width {
		return nil, superpixel.ConsistencyError("model %s declares %d features but its parameters have %d", path, f.Width, m.Width())
	}
	return &Loaded{Model: m, Fields: f.Fields, Classes: f.Classes}, nil
}
