package repository

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pc-volume-bridge/internal/domain"
)

// Defaults for the bridge and HTTP sections.
const (
	DefaultPin      = "00102003"
	DefaultHTTPAddr = ""
)

// Settings is everything read from the configuration file.
type Settings struct {
	Accessory domain.AccessoryConfig
	Debug     bool
	Backend   string
	Bridge    BridgeSettings
	HTTPAddr  string
}

// BridgeSettings configures the HomeKit server.
type BridgeSettings struct {
	Pin       string
	Addr      string
	StorePath string
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Accessory: domain.DefaultAccessoryConfig(),
		Bridge: BridgeSettings{
			Pin:       DefaultPin,
			StorePath: DefaultStorePath(),
		},
		HTTPAddr: DefaultHTTPAddr,
	}
}

// FileRepository loads and saves Settings as JSON, YAML or TOML, chosen by
// file extension. This is a secondary adapter.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a new file-based settings repository.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	return &FileRepository{path: path}, nil
}

// Path returns the file location.
func (f *FileRepository) Path() string {
	return f.path
}

// persistedData represents the structure on disk. Field names follow the
// homebridge plugin options so existing configurations load unchanged.
type persistedData struct {
	Name              string           `json:"name" yaml:"name" toml:"name"`
	Services          []string         `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
	Logarithmic       bool             `json:"logarithmic,omitempty" yaml:"logarithmic,omitempty" toml:"logarithmic,omitempty"`
	InitialVolume     *int             `json:"initialVolume,omitempty" yaml:"initialVolume,omitempty" toml:"initialVolume,omitempty"`
	InitiallyMuted    *bool            `json:"initiallyMuted,omitempty" yaml:"initiallyMuted,omitempty" toml:"initiallyMuted,omitempty"`
	SwitchVolumeDelta *int             `json:"switchVolumeDelta,omitempty" yaml:"switchVolumeDelta,omitempty" toml:"switchVolumeDelta,omitempty"`
	Delta             *int             `json:"delta,omitempty" yaml:"delta,omitempty" toml:"delta,omitempty"`
	SwitchDelay       *int             `json:"switchDelay,omitempty" yaml:"switchDelay,omitempty" toml:"switchDelay,omitempty"`
	Delay             *int             `json:"delay,omitempty" yaml:"delay,omitempty" toml:"delay,omitempty"`
	Cached            bool             `json:"cached,omitempty" yaml:"cached,omitempty" toml:"cached,omitempty"`
	Debug             bool             `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	SyncInterval      string           `json:"syncInterval,omitempty" yaml:"syncInterval,omitempty" toml:"syncInterval,omitempty"`
	Backend           string           `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty"`
	Bridge            *persistedBridge `json:"bridge,omitempty" yaml:"bridge,omitempty" toml:"bridge,omitempty"`
	HTTP              *persistedHTTP   `json:"http,omitempty" yaml:"http,omitempty" toml:"http,omitempty"`
}

type persistedBridge struct {
	Pin       string `json:"pin,omitempty" yaml:"pin,omitempty" toml:"pin,omitempty"`
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
	StorePath string `json:"storePath,omitempty" yaml:"storePath,omitempty" toml:"storePath,omitempty"`
}

type persistedHTTP struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	// .yaml, .yml and .json; JSON documents are valid YAML
	return formatYAML
}

// Load reads and validates the settings. A missing file yields DefaultSettings.
func (f *FileRepository) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(data, formatOf(f.path) == formatTOML)
}

// Decode parses a configuration document (YAML/JSON, or TOML when isTOML is set).
func Decode(data []byte, isTOML bool) (Settings, error) {
	var persisted persistedData
	if isTOML {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&persisted); err != nil {
			return Settings{}, fmt.Errorf("%w: decode toml: %v", domain.ErrInvalidConfig, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &persisted); err != nil {
			return Settings{}, fmt.Errorf("%w: decode yaml: %v", domain.ErrInvalidConfig, err)
		}
	}
	return persisted.toSettings()
}

// Convert to domain models, applying defaults for omitted options.
func (p persistedData) toSettings() (Settings, error) {
	s := DefaultSettings()
	cfg := &s.Accessory

	// a document must name its accessory; only a missing file uses the default name
	cfg.Name = strings.TrimSpace(p.Name)
	if len(p.Services) > 0 {
		cfg.Services = cfg.Services[:0:0]
		seen := make(map[domain.ServiceKind]bool)
		for _, name := range p.Services {
			kind, err := domain.ParseServiceKind(strings.TrimSpace(name))
			if err != nil {
				return Settings{}, err
			}
			if seen[kind] {
				continue
			}
			seen[kind] = true
			cfg.Services = append(cfg.Services, kind)
		}
	}
	if p.Logarithmic {
		cfg.Algorithm = domain.AlgorithmLogarithmic
	}
	cfg.InitialVolume = p.InitialVolume
	cfg.InitiallyMuted = p.InitiallyMuted

	if d := firstOf(p.SwitchVolumeDelta, p.Delta); d != nil {
		cfg.Nudge.Delta = *d
	}
	if d := firstOf(p.SwitchDelay, p.Delay); d != nil {
		cfg.Nudge.Delay = time.Duration(*d) * time.Millisecond
	}
	// caching only makes sense when the curve loses resolution
	cfg.Cached = p.Cached && p.Logarithmic

	if p.SyncInterval != "" {
		d, err := time.ParseDuration(p.SyncInterval)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: syncInterval: %v", domain.ErrInvalidConfig, err)
		}
		cfg.SyncInterval = d
	}

	s.Debug = p.Debug
	s.Backend = p.Backend
	if p.Bridge != nil {
		if p.Bridge.Pin != "" {
			s.Bridge.Pin = p.Bridge.Pin
		}
		s.Bridge.Addr = p.Bridge.Addr
		if p.Bridge.StorePath != "" {
			s.Bridge.StorePath = p.Bridge.StorePath
		}
	}
	if p.HTTP != nil {
		s.HTTPAddr = p.HTTP.Addr
	}

	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	if err := validatePin(s.Bridge.Pin); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func firstOf(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func validatePin(pin string) error {
	if len(pin) != 8 {
		return fmt.Errorf("%w: bridge pin must have 8 digits", domain.ErrInvalidConfig)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: bridge pin must have 8 digits", domain.ErrInvalidConfig)
		}
	}
	return nil
}

func fromSettings(s Settings) persistedData {
	cfg := s.Accessory
	services := make([]string, 0, len(cfg.Services))
	for _, k := range cfg.Services {
		services = append(services, string(k))
	}
	delta := cfg.Nudge.Delta
	delay := int(cfg.Nudge.Delay / time.Millisecond)

	p := persistedData{
		Name:              cfg.Name,
		Services:          services,
		Logarithmic:       cfg.Algorithm == domain.AlgorithmLogarithmic,
		InitialVolume:     cfg.InitialVolume,
		InitiallyMuted:    cfg.InitiallyMuted,
		SwitchVolumeDelta: &delta,
		SwitchDelay:       &delay,
		Cached:            cfg.Cached,
		Debug:             s.Debug,
		Backend:           s.Backend,
		Bridge: &persistedBridge{
			Pin:       s.Bridge.Pin,
			Addr:      s.Bridge.Addr,
			StorePath: s.Bridge.StorePath,
		},
	}
	if cfg.SyncInterval > 0 {
		p.SyncInterval = cfg.SyncInterval.String()
	}
	if s.HTTPAddr != "" {
		p.HTTP = &persistedHTTP{Addr: s.HTTPAddr}
	}
	return p
}

// Encode renders s in the file format of path.
func Encode(s Settings, path string) ([]byte, error) {
	persisted := fromSettings(s)
	if formatOf(path) == formatTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(persisted); err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := yaml.Marshal(persisted)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Save persists the settings to disk.
func (f *FileRepository) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.EqualFold(filepath.Ext(f.path), ".json") {
		return errors.New("saving JSON configuration is not supported; use .yaml or .toml")
	}
	data, err := Encode(s, f.path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pc-volume-bridge")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultStorePath returns the default directory for HomeKit pairing data.
func DefaultStorePath() string {
	return filepath.Join(configDir(), "hap")
}
