package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.yaml
var defaultConfig []byte

const envPrefix = "DDT_"

// UserConfigPath is the config file looked up under the XDG config dirs.
var UserConfigPath = filepath.Join("ddtinstall", "config.yaml")

const (
	SettleModePoll  = "poll"
	SettleModeFixed = "fixed"
)

type Config struct {
	Debug         bool           `koanf:"debug"`
	Terminal      string         `koanf:"terminal"`
	Repo          Repo           `koanf:"repo"`
	Manifest      Manifest       `koanf:"manifest"`
	Launch        Launch         `koanf:"launch"`
	Settle        Settle         `koanf:"settle"`
	Sudo          Sudo           `koanf:"sudo"`
	Preflight     Preflight      `koanf:"preflight"`
	Progress      Progress       `koanf:"progress"`
	Prerequisites []Prerequisite `koanf:"prerequisites"`
}

type Repo struct {
	URL string `koanf:"url"`
	Dir string `koanf:"dir"`
}

type Manifest struct {
	// Path is relative to the clone directory.
	Path string `koanf:"path"`
}

type Launch struct {
	Script string `koanf:"script"`
	Title  string `koanf:"title"`
}

type Settle struct {
	Mode         string        `koanf:"mode"`
	Timeout      time.Duration `koanf:"timeout"`
	Fixed        time.Duration `koanf:"fixed"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

type Sudo struct {
	Keepalive time.Duration `koanf:"keepalive"`
}

type Preflight struct {
	AllowUnsupported bool `koanf:"allow_unsupported"`
}

type Progress struct {
	BarStyle string `koanf:"bar_style"`
}

type Prerequisite struct {
	Name    string `koanf:"name"`
	Check   string `koanf:"check"`
	Install string `koanf:"install"`
	Path    string `koanf:"path"`
}

type LoadOptions struct {
	// ConfigFile must exist when set. When empty the XDG config dirs are
	// searched and a missing file is not an error.
	ConfigFile string
	// Overrides are dotted keys applied last, typically from CLI flags.
	Overrides map[string]interface{}
}

// Load layers embedded defaults, the config file, DDT_* environment
// variables and overrides, in that order.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := resolveConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errdefs.WrapCustomError(errdefs.ErrTypeInvalidConfig,
				fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	// DDT_SETTLE__POLL_INTERVAL -> settle.poll_interval
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errdefs.WrapCustomError(errdefs.ErrTypeInvalidConfig, "failed to unmarshal configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errdefs.WrapCustomError(errdefs.ErrTypeInvalidConfig,
				fmt.Sprintf("config file %s", explicit), err)
		}
		return explicit, nil
	}
	path, err := xdg.SearchConfigFile(UserConfigPath)
	if err != nil {
		return "", nil
	}
	return path, nil
}

func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Repo.URL == "" {
		add("repo.url is empty")
	}
	if c.Repo.Dir == "" {
		add("repo.dir is empty")
	}
	if c.Manifest.Path == "" {
		add("manifest.path is empty")
	}
	if c.Launch.Script == "" {
		add("launch.script is empty")
	}
	if c.Terminal == "" {
		add("terminal is empty")
	}

	switch c.Settle.Mode {
	case SettleModePoll:
		if c.Settle.Timeout <= 0 {
			add("settle.timeout must be positive")
		}
		if c.Settle.PollInterval <= 0 {
			add("settle.poll_interval must be positive")
		}
	case SettleModeFixed:
		if c.Settle.Fixed < 0 {
			add("settle.fixed must not be negative")
		}
	default:
		add("settle.mode %q must be %q or %q", c.Settle.Mode, SettleModePoll, SettleModeFixed)
	}

	if c.Sudo.Keepalive < 0 {
		add("sudo.keepalive must not be negative")
	}

	switch c.Progress.BarStyle {
	case "ascii", "gradient":
	default:
		add("progress.bar_style %q must be ascii or gradient", c.Progress.BarStyle)
	}

	for i, p := range c.Prerequisites {
		if p.Name == "" || p.Check == "" || p.Install == "" {
			add("prerequisites[%d] needs name, check and install", i)
		}
	}

	if len(problems) > 0 {
		return errdefs.NewCustomError(errdefs.ErrTypeInvalidConfig, "invalid configuration: "+strings.Join(problems, "; "))
	}
	return nil
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}
