package store

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// DefaultUser is recorded when a label is saved without a user.
const DefaultUser = "anonymous"

// LabelEntry is one user-assigned label.
type LabelEntry struct {
	Label string `json:"label"`
	User  string `json:"user"`

	// TS is the Unix time in seconds the label was saved.
	TS int64 `json:"ts"`
}

// Labels maps decimal superpixel ids to their latest label.
type Labels map[string]LabelEntry

func (s *Store) labelsPath(imageID string) string {
	return filepath.Join(s.root, LabelsDir, imageID+"_labels.json")
}

// SaveLabel records label for one superpixel of imageID, replacing any
// earlier label for it. An empty user is stored as DefaultUser.
func (s *Store) SaveLabel(imageID string, superpixelID int, label, user string) (LabelEntry, error) {
	if err := checkID("image id", imageID); err != nil {
		return LabelEntry{}, err
	}
	if superpixelID < 0 {
		return LabelEntry{}, superpixel.InputError("superpixel id must be non-negative, got %d", superpixelID)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return LabelEntry{}, superpixel.InputError("label is required")
	}
	if user = strings.TrimSpace(user); user == "" {
		user = DefaultUser
	}

	s.labelMu.Lock()
	defer s.labelMu.Unlock()

	labels, err := s.loadLabels(imageID)
	if err != nil {
		return LabelEntry{}, err
	}
	entry := LabelEntry{Label: label, User: user, TS: s.now().Unix()}
	labels[strconv.Itoa(superpixelID)] = entry

	if err := s.writeJSON(s.labelsPath(imageID), labels); err != nil {
		return LabelEntry{}, err
	}
	s.logger.Debug().Str("image_id", imageID).Int("superpixel_id", superpixelID).Str("label", label).Msg("saved label")
	return entry, nil
}

// Labels returns every label saved for imageID. An image without labels
// yields an empty map, not an error.
func (s *Store) Labels(imageID string) (Labels, error) {
	if err := checkID("image id", imageID); err != nil {
		return nil, err
	}
	s.labelMu.Lock()
	defer s.labelMu.Unlock()
	return s.loadLabels(imageID)
}

func (s *Store) loadLabels(imageID string) (Labels, error) {
	labels := Labels{}
	err := s.readJSON(s.labelsPath(imageID), &labels)
	if errors.Is(err, superpixel.ErrNotFound) {
		return Labels{}, nil
	}
	if err != nil {
		return nil, err
	}
	return labels, nil
}
