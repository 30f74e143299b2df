package applets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/webdeckhq/webdeck/backend/internal/logging"
)

// ManifestExt is the file extension of applet manifests.
const ManifestExt = ".deck"

// Seeder loads applet manifests from a directory at boot.
type Seeder struct {
	registry *Registry
	dir      string
	log      *logging.Logger
}

// NewSeeder creates a seeder reading manifests from dir.
func NewSeeder(registry *Registry, dir string, log *logging.Logger) *Seeder {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Seeder{
		registry: registry,
		dir:      dir,
		log:      log.With(zap.String("component", "applets")),
	}
}

// Seed walks the manifest directory and registers every .deck file. A
// missing directory is not an error; a broken manifest is skipped and
// logged, never fatal.
func (s *Seeder) Seed() error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.log.Info("applet directory not found, skipping", zap.String("dir", s.dir))
		return nil
	}

	var loaded, failed int
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ManifestExt) {
			return nil
		}

		if err := s.load(path); err != nil {
			s.log.Warn("failed to load manifest",
				zap.String("file", info.Name()), zap.Error(err))
			failed++
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("applet seeding complete",
		zap.Int("loaded", loaded), zap.Int("failed", failed))
	return nil
}

func (s *Seeder) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	return s.registry.Save(&m)
}
