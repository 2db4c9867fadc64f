package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration into dir unless one exists
// and returns the loaded result.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsys := afero.NewOsFs()
	if err := fsys.MkdirAll(abs, 0700); err != nil {
		return nil, err
	}
	return InitializeFs(afero.NewBasePathFs(fsys, abs), logger)
}

// InitializeFs is Initialize on an arbitrary filesystem.
func InitializeFs(fsys afero.Fs, logger *log.Logger) (*Configuration, error) {
	_, err := fsys.Stat(ConfigurationName)
	switch {
	case err == nil:
		logger.Printf("%s already exists, leaving it alone", ConfigurationName)
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("writing default %s", ConfigurationName)
		if err := afero.WriteFile(fsys, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return LoadFs(fsys)
}
