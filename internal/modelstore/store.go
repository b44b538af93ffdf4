// Package modelstore persists trained model bundles on the filesystem.
// Each training run writes a fresh versioned directory and then swaps the
// CURRENT pointer file via rename, so a reader never observes a partially
// written bundle: it either loads the old complete set or the new one.
package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/models"
)

const (
	currentPointerFile = "CURRENT"
	manifestFile       = "manifest.json"
)

// slotFiles: one named slot per ensemble member.
var slotFiles = []string{"regime.json", "reversal.json", "momentum.json", "range.json", "divergence.json"}

// Store is a filesystem-backed bundle store rooted at one directory.
type Store struct {
	root string
	log  zerolog.Logger
}

// New creates a store rooted at dir.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{
		root: dir,
		log:  log.With().Str("component", "modelstore").Logger(),
	}
}

// NewVersion mints a fresh version identifier for a training run.
func NewVersion(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Save persists the bundle atomically: all slots land in a new version
// directory first, and only then does the CURRENT pointer move. A failure
// anywhere leaves the previous version untouched and loadable.
func (s *Store) Save(bundle *models.Bundle) error {
	if err := validateBundle(bundle); err != nil {
		return err
	}
	versionDir := filepath.Join(s.root, bundle.Version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("modelstore: create version dir: %w", err)
	}

	slots := map[string]any{
		"regime.json":     bundle.Regime,
		"reversal.json":   bundle.Reversal,
		"momentum.json":   bundle.Momentum,
		"range.json":      bundle.Range,
		"divergence.json": bundle.Divergence,
		manifestFile:      bundle,
	}
	for name, payload := range slots {
		if err := writeJSON(filepath.Join(versionDir, name), payload); err != nil {
			return fmt.Errorf("modelstore: write %s: %w", name, err)
		}
	}

	if err := swapPointer(filepath.Join(s.root, currentPointerFile), bundle.Version); err != nil {
		return err
	}

	s.log.Info().
		Str("version", bundle.Version).
		Str("symbol", bundle.Symbol).
		Int("samples", bundle.Samples).
		Msg("model bundle activated")
	return nil
}

// LoadCurrent reads the active bundle. Read-all-or-fail: a missing pointer
// or slot is ErrModelNotFound, an undecodable slot or a manifest mismatch is
// ErrModelCorrupt. Both are fatal to an inference run.
func (s *Store) LoadCurrent() (*models.Bundle, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, currentPointerFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("modelstore: no active version: %w", contracts.ErrModelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: read pointer: %w", err)
	}
	version := strings.TrimSpace(string(raw))
	if version == "" {
		return nil, fmt.Errorf("modelstore: empty version pointer: %w", contracts.ErrModelCorrupt)
	}
	return s.Load(version)
}

// Load reads one specific version.
func (s *Store) Load(version string) (*models.Bundle, error) {
	versionDir := filepath.Join(s.root, version)

	bundle := &models.Bundle{}
	if err := readJSON(filepath.Join(versionDir, manifestFile), bundle); err != nil {
		return nil, err
	}
	if bundle.Version != version {
		return nil, fmt.Errorf("modelstore: manifest version %q does not match directory %q: %w",
			bundle.Version, version, contracts.ErrModelCorrupt)
	}

	bundle.Regime = &models.RegimeModel{}
	bundle.Reversal = &models.ReversalModel{}
	bundle.Momentum = &models.MomentumModel{}
	bundle.Range = &models.RangeModel{}
	bundle.Divergence = &models.DivergenceModel{}
	slots := map[string]any{
		"regime.json":     bundle.Regime,
		"reversal.json":   bundle.Reversal,
		"momentum.json":   bundle.Momentum,
		"range.json":      bundle.Range,
		"divergence.json": bundle.Divergence,
	}
	for _, name := range slotFiles {
		if err := readJSON(filepath.Join(versionDir, name), slots[name]); err != nil {
			return nil, err
		}
	}

	s.log.Debug().Str("version", version).Msg("model bundle loaded")
	return bundle, nil
}

func validateBundle(b *models.Bundle) error {
	if b.Version == "" {
		return errors.New("modelstore: bundle version is empty")
	}
	if b.Regime == nil || b.Reversal == nil || b.Momentum == nil || b.Range == nil || b.Divergence == nil {
		return errors.New("modelstore: refusing to persist a partial bundle")
	}
	return nil
}

// writeJSON writes via a temp file in the same directory, fsyncs it and
// renames it into place, so a crash never leaves a half-written slot behind
// the final name.
func writeJSON(path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func readJSON(path string, target any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("modelstore: %s: %w", filepath.Base(path), contracts.ErrModelNotFound)
	}
	if err != nil {
		return fmt.Errorf("modelstore: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("modelstore: decode %s: %v: %w", filepath.Base(path), err, contracts.ErrModelCorrupt)
	}
	return nil
}

// swapPointer writes the new version to a temp file, fsyncs it and renames
// it over the pointer, the atomic step that activates the bundle.
func swapPointer(pointerPath, version string) error {
	tmpName := pointerPath + ".tmp"
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("modelstore: create pointer temp: %w", err)
	}
	if _, err := tmp.WriteString(version + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("modelstore: write pointer temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("modelstore: sync pointer temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("modelstore: close pointer temp: %w", err)
	}
	if err := os.Rename(tmpName, pointerPath); err != nil {
		return fmt.Errorf("modelstore: activate version: %w", err)
	}
	return nil
}
