package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

type Configuration struct {
	configFs afero.Fs

	DefaultPath      string `json:"default_path" validate:"required"`
	Shell            string `json:"shell" validate:"required,startswith=/"`
	DirStackCapacity int    `json:"dir_stack_capacity" validate:"gte=0"`

	Watch Watch `json:"watch"`

	Prompt       string `json:"prompt"`
	HistoryLimit int    `json:"history_limit" validate:"gte=0"`
	AppLog       string `json:"app_log"`
}

type Watch struct {
	IntervalMs     int    `json:"interval_ms" validate:"gte=0"`
	PollIntervalMs int    `json:"poll_interval_ms" validate:"gt=0"`
	Backend        string `json:"backend" validate:"oneof=auto event poll"`
}

// Interval is the minimum time between two runs of a watched command.
func (w Watch) Interval() time.Duration {
	return time.Duration(w.IntervalMs) * time.Millisecond
}

// PollInterval is the sampling period of the polling backend.
func (w Watch) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewMemMapFs()
	}
	return c.configFs
}

// OpenAppLog opens the application log in an append only state. It returns
// a nil file if the log is disabled.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if c.AppLog == "" {
		return nil, nil
	}
	if dir := filepath.Dir(c.AppLog); dir != "." {
		if err := c.fs().MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}
	return c.fs().OpenFile(c.AppLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the application log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built in configuration. Its app log lives in memory.
func Default() *Configuration {
	cfg := defaultConfig()
	cfg.configFs = afero.NewMemMapFs()
	return cfg
}
