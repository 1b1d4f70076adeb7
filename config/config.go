package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultRefreshInterval = 1
	DefaultAuthUser        = "admin"
	DefaultAuthPass        = "admin"
)

var (
	ErrEmptyURL        = errors.New("url must not be empty")
	ErrURLExists       = errors.New("url already exists")
	ErrURLNotFound     = errors.New("url not found")
	ErrInvalidInterval = errors.New("refresh interval must be a positive number of minutes")
	ErrEmptyPassword   = errors.New("password must not be empty")
)

// Config is the source configuration owned by the admin tooling
type Config struct {
	URLs            []string `toml:"urls"`
	RefreshInterval int      `toml:"refresh_interval"`
	AuthUser        string   `toml:"auth_user"`
	AuthPass        string   `toml:"auth_pass"`
}

// Default returns the configuration written when no config file exists
func Default() Config {
	return Config{
		URLs:            []string{},
		RefreshInterval: DefaultRefreshInterval,
		AuthUser:        DefaultAuthUser,
		AuthPass:        DefaultAuthPass,
	}
}

// Interval returns the refresh interval, falling back to the default for non positive values
func (c Config) Interval() time.Duration {
	minutes := c.RefreshInterval
	if minutes < 1 {
		minutes = DefaultRefreshInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Sources returns a copy of the configured URLs with blank entries removed.
// Order and duplicates are kept.
func (c Config) Sources() []string {
	return lo.FilterMap(c.URLs, func(url string, _ int) (string, bool) {
		url = strings.TrimSpace(url)
		return url, url != ""
	})
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

// SaveConfig writes config to path through a temporary file and a rename,
// so readers never see a partially written file.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(config); err != nil {
		tmp.Close()
		return fmt.Errorf("error encoding config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// Store gives access to the config file. The file is read again on every
// call so changes made by other processes are picked up.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the config file, creating it with default values if it does not exist
func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Config, error) {
	config, err := LoadConfig(s.path)
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	config = lo.ToPtr(Default())
	if err := SaveConfig(s.path, config); err != nil {
		// Still usable, it just won't survive a restart
		log.WithFields(log.Fields{
			"path":  s.path,
			"error": err,
		}).Error("Failed to create default config file")
	}
	return config, nil
}

// Current returns the configuration and never fails. When the file can not
// be read the default configuration is returned and the error logged.
func (s *Store) Current() Config {
	config, err := s.Load()
	if err != nil {
		log.WithFields(log.Fields{
			"path":  s.path,
			"error": err,
		}).Error("Failed to read config, using defaults")
		return Default()
	}
	return *config
}

// Update applies fn to the current config and saves the result
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(config); err != nil {
		return err
	}
	return SaveConfig(s.path, config)
}

func (s *Store) AddURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	return s.Update(func(c *Config) error {
		if lo.Contains(c.URLs, url) {
			return ErrURLExists
		}
		c.URLs = append(c.URLs, url)
		return nil
	})
}

func (s *Store) RemoveURL(url string) error {
	url = strings.TrimSpace(url)
	return s.Update(func(c *Config) error {
		if !lo.Contains(c.URLs, url) {
			return ErrURLNotFound
		}
		c.URLs = lo.Without(c.URLs, url)
		return nil
	})
}

func (s *Store) SetInterval(minutes int) error {
	if minutes < 1 {
		return ErrInvalidInterval
	}
	return s.Update(func(c *Config) error {
		c.RefreshInterval = minutes
		return nil
	})
}

// SetCredentials changes the login used for the manual refresh endpoint.
// An empty user keeps the current one.
func (s *Store) SetCredentials(user, password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrEmptyPassword
	}
	return s.Update(func(c *Config) error {
		if user = strings.TrimSpace(user); user != "" {
			c.AuthUser = user
		}
		c.AuthPass = password
		return nil
	})
}
