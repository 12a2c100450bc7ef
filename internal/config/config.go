package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	PromptAsk = "ask" // ask on the terminal
	PromptYes = "yes" // always keep retrying
	PromptNo  = "no"  // stop monitoring on the first prompt
)

const (
	keyClientID       = "spotify.client_id"
	keyClientSecret   = "spotify.client_secret"
	keyRefreshToken   = "spotify.refresh_token"
	keyUsername       = "spotify.username"
	keyServerPort     = "server.port"
	keyAllowedOrigins = "server.allowed_origins"
	keyLogLevel       = "log.level"
	keyLogDir         = "log.dir"
	keyAudioBackend   = "audio.backend"
	keyAudioSink      = "audio.sink"
	keyAttempts       = "poll.attempts"
	keySilentRounds   = "poll.silent_rounds"
	keyTimeUnit       = "poll.time_unit"
	keyPromptMode     = "prompt.mode"
	keyNotify         = "notify.enabled"

	defaultConfigName = "admute"
)

var defaults = map[string]any{
	keyLogLevel:     "info",
	keyLogDir:       ".logs",
	keyAudioBackend: "pulse",
	keyAudioSink:    "@DEFAULT_SINK@",
	keyAttempts:     3,
	keySilentRounds: 1,
	keyTimeUnit:     time.Second,
	keyPromptMode:   PromptAsk,
	keyNotify:       true,
}

// Config holds the application configuration.
type Config struct {
	ServerPort     string
	AllowedOrigins []string
	LogLevel       string
	LogDir         string
	Spotify        struct {
		ClientID     string
		ClientSecret string
		RefreshToken string
		Username     string
	}
	Audio struct {
		Backend string
		Sink    string
	}
	Poll struct {
		Attempts     int
		SilentRounds int
		TimeUnit     time.Duration
	}
	PromptMode    string
	Notify        bool
	EnvFileLoaded bool

	v *viper.Viper
}

// Flags returns the command-line flags Load understands.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("spotify-admute", pflag.ContinueOnError)
	flags.StringP("config", "c", "", "path to a YAML config file (optional)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-dir", ".logs", "directory for log files")
	flags.StringP("username", "u", "", "spotify username to verify the authorized account against")
	flags.StringP("port", "p", "", "serve status and websocket updates on this port")
	flags.String("backend", "pulse", "audio backend: pulse or none")
	flags.String("prompt", PromptAsk, "what to do when polling keeps failing: ask, yes or no")
	return flags
}

// Load resolves the configuration from flags, the environment (including a .env
// file), an optional config file and defaults, in that order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{v: viper.New()}
	cfg.EnvFileLoaded = godotenv.Load() == nil

	v := cfg.v
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyAllowedOrigins, "ALLOWED_ORIGINS"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	cfg.populate()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// File returns the config file in use, or "" when none was found.
func (c *Config) File() string {
	return c.v.ConfigFileUsed()
}

// WatchLogLevel calls apply with the new log level whenever the config file changes.
// It reports false when there is no file to watch.
func (c *Config) WatchLogLevel(apply func(level string)) bool {
	if c.File() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		apply(c.v.GetString(keyLogLevel))
	})
	c.v.WatchConfig()
	return true
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		keyLogLevel:     "log-level",
		keyLogDir:       "log-dir",
		keyUsername:     "username",
		keyServerPort:   "port",
		keyAudioBackend: "backend",
		keyPromptMode:   "prompt",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	var path string
	if flags != nil {
		path, _ = flags.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (c *Config) populate() {
	v := c.v

	c.Spotify.ClientID = v.GetString(keyClientID)
	c.Spotify.ClientSecret = v.GetString(keyClientSecret)
	c.Spotify.RefreshToken = v.GetString(keyRefreshToken)
	c.Spotify.Username = strings.TrimSpace(v.GetString(keyUsername))

	c.ServerPort = strings.TrimSpace(v.GetString(keyServerPort))
	c.AllowedOrigins = nil
	for _, origin := range strings.Split(v.GetString(keyAllowedOrigins), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, origin)
		}
	}

	c.LogLevel = v.GetString(keyLogLevel)
	c.LogDir = v.GetString(keyLogDir)

	c.Audio.Backend = strings.ToLower(v.GetString(keyAudioBackend))
	c.Audio.Sink = v.GetString(keyAudioSink)

	c.Poll.Attempts = v.GetInt(keyAttempts)
	c.Poll.SilentRounds = v.GetInt(keySilentRounds)
	c.Poll.TimeUnit = v.GetDuration(keyTimeUnit)

	c.PromptMode = strings.ToLower(strings.TrimSpace(v.GetString(keyPromptMode)))
	c.Notify = v.GetBool(keyNotify)
}

func (c *Config) validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
		return fmt.Errorf("spotify credentials are not set")
	}
	if c.Poll.Attempts < 1 {
		return fmt.Errorf("poll attempts must be at least 1, got %d", c.Poll.Attempts)
	}
	if c.Poll.SilentRounds < 0 {
		return fmt.Errorf("poll silent rounds must not be negative, got %d", c.Poll.SilentRounds)
	}
	if c.Poll.TimeUnit <= 0 {
		return fmt.Errorf("poll time unit must be positive, got %s", c.Poll.TimeUnit)
	}
	switch c.PromptMode {
	case PromptAsk, PromptYes, PromptNo:
	default:
		return fmt.Errorf("unknown prompt mode %q", c.PromptMode)
	}
	return nil
}
