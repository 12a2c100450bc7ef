package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setCredentials(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Spotify.ClientID != "id" || cfg.Spotify.ClientSecret != "secret" || cfg.Spotify.RefreshToken != "refresh" {
		t.Fatalf("Spotify = %+v", cfg.Spotify)
	}
	if cfg.LogLevel != "info" || cfg.LogDir != ".logs" {
		t.Fatalf("log = %q %q", cfg.LogLevel, cfg.LogDir)
	}
	if cfg.Audio.Backend != "pulse" || cfg.Audio.Sink != "@DEFAULT_SINK@" {
		t.Fatalf("Audio = %+v", cfg.Audio)
	}
	if cfg.Poll.Attempts != 3 || cfg.Poll.SilentRounds != 1 || cfg.Poll.TimeUnit != time.Second {
		t.Fatalf("Poll = %+v", cfg.Poll)
	}
	if cfg.PromptMode != PromptAsk || !cfg.Notify {
		t.Fatalf("PromptMode = %q, Notify = %v", cfg.PromptMode, cfg.Notify)
	}
	if cfg.ServerPort != "" || cfg.AllowedOrigins != nil {
		t.Fatalf("server = %q %v, want disabled", cfg.ServerPort, cfg.AllowedOrigins)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "")

	if _, err := Load(nil); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("Load error = %v, want missing credentials", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	setCredentials(t)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLL_ATTEMPTS", "5")
	t.Setenv("POLL_TIME_UNIT", "250ms")
	t.Setenv("PROMPT_MODE", "YES")
	t.Setenv("NOTIFY_ENABLED", "false")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ServerPort != "3000" {
		t.Fatalf("ServerPort = %q, want 3000", cfg.ServerPort)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Poll.Attempts != 5 || cfg.Poll.TimeUnit != 250*time.Millisecond {
		t.Fatalf("Poll = %+v", cfg.Poll)
	}
	if cfg.PromptMode != PromptYes || cfg.Notify {
		t.Fatalf("PromptMode = %q, Notify = %v", cfg.PromptMode, cfg.Notify)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	setCredentials(t)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("AUDIO_BACKEND", "pulse")

	flags := Flags()
	if err := flags.Parse([]string{"--log-level", "error", "--backend", "none", "-u", "listener", "-p", "8080"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogLevel != "error" || cfg.Audio.Backend != "none" {
		t.Fatalf("LogLevel = %q, Backend = %q", cfg.LogLevel, cfg.Audio.Backend)
	}
	if cfg.Spotify.Username != "listener" || cfg.ServerPort != "8080" {
		t.Fatalf("Username = %q, ServerPort = %q", cfg.Spotify.Username, cfg.ServerPort)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "admute.yaml")
	if err := os.WriteFile(path, []byte(`
log:
  level: debug
poll:
  attempts: 4
  silent_rounds: 0
prompt:
  mode: "no"
audio:
  sink: alsa_output.usb
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	flags := Flags()
	if err := flags.Parse([]string{"--config", path}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.File() != path {
		t.Fatalf("File() = %q, want %q", cfg.File(), path)
	}
	if cfg.LogLevel != "debug" || cfg.Poll.Attempts != 4 || cfg.Poll.SilentRounds != 0 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PromptMode != PromptNo || cfg.Audio.Sink != "alsa_output.usb" {
		t.Fatalf("PromptMode = %q, Sink = %q", cfg.PromptMode, cfg.Audio.Sink)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	setCredentials(t)

	flags := Flags()
	if err := flags.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Load(flags); err == nil {
		t.Fatal("Load accepted a missing explicit config file")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero attempts", "POLL_ATTEMPTS", "0"},
		{"negative silent rounds", "POLL_SILENT_ROUNDS", "-1"},
		{"zero time unit", "POLL_TIME_UNIT", "0s"},
		{"unknown prompt mode", "PROMPT_MODE", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(nil); err == nil {
				t.Fatalf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestWatchLogLevel_NoFile(t *testing.T) {
	setCredentials(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WatchLogLevel(func(string) {}) {
		t.Fatal("WatchLogLevel reported a watch without a config file")
	}
}
