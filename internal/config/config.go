package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "ghostreplay.cfg.json"

// RecordingConfig holds recorder settings.
type RecordingConfig struct {
	FixedDelta          time.Duration `json:"fixedDelta" mapstructure:"fixedDelta"`
	SampleInFixedUpdate bool          `json:"sampleInFixedUpdate" mapstructure:"sampleInFixedUpdate"`
}

// PlaybackConfig holds playback and ghost settings.
type PlaybackConfig struct {
	DestroyGhostOnStop bool          `json:"destroyGhostOnStop" mapstructure:"destroyGhostOnStop"`
	StartHold          time.Duration `json:"startHold" mapstructure:"startHold"`
	GhostLayer         string        `json:"ghostLayer" mapstructure:"ghostLayer"`
	GhostTag           string        `json:"ghostTag" mapstructure:"ghostTag"`
	GhostSuffix        string        `json:"ghostSuffix" mapstructure:"ghostSuffix"`
	ExclusiveTags      []string      `json:"exclusiveTags" mapstructure:"exclusiveTags"`
	SyncAnimatorState  bool          `json:"syncAnimatorState" mapstructure:"syncAnimatorState"`
}

// RewindConfig holds session coordinator settings.
type RewindConfig struct {
	ExclusiveSessions bool          `json:"exclusiveSessions" mapstructure:"exclusiveSessions"`
	ToggleHold        time.Duration `json:"toggleHold" mapstructure:"toggleHold"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds the session telemetry sink settings.
type InfluxConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Token   string `json:"token" mapstructure:"token"`
	Org     string `json:"org" mapstructure:"org"`
	Bucket  string `json:"bucket" mapstructure:"bucket"`
}

// SetDefaults registers every default value. Load calls it; tests and the
// demo may call it directly to run without a file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("physics.fixedDelta", "20ms")
	viper.SetDefault("recording.sampleInFixedUpdate", true)

	viper.SetDefault("playback.destroyGhostOnStop", true)
	viper.SetDefault("playback.startHold", "0s")
	viper.SetDefault("playback.ghostLayer", "Player_Recorded")
	viper.SetDefault("playback.ghostTag", "PlayerGhost")
	viper.SetDefault("playback.ghostSuffix", "_Ghost")
	viper.SetDefault("playback.exclusiveTags", []string{"Player"})
	viper.SetDefault("playback.syncAnimatorState", false)

	viper.SetDefault("rewind.exclusiveSessions", true)
	viper.SetDefault("rewind.toggleHold", "1s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "ghostreplay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "ghostreplay")
	viper.SetDefault("influx.bucket", "rewind_sessions")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetRecordingConfig returns recorder settings.
func GetRecordingConfig() RecordingConfig {
	return RecordingConfig{
		FixedDelta:          viper.GetDuration("physics.fixedDelta"),
		SampleInFixedUpdate: viper.GetBool("recording.sampleInFixedUpdate"),
	}
}

// GetPlaybackConfig returns playback settings.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		DestroyGhostOnStop: viper.GetBool("playback.destroyGhostOnStop"),
		StartHold:          viper.GetDuration("playback.startHold"),
		GhostLayer:         viper.GetString("playback.ghostLayer"),
		GhostTag:           viper.GetString("playback.ghostTag"),
		GhostSuffix:        viper.GetString("playback.ghostSuffix"),
		ExclusiveTags:      viper.GetStringSlice("playback.exclusiveTags"),
		SyncAnimatorState:  viper.GetBool("playback.syncAnimatorState"),
	}
}

// GetRewindConfig returns session coordinator settings.
func GetRewindConfig() RewindConfig {
	return RewindConfig{
		ExclusiveSessions: viper.GetBool("rewind.exclusiveSessions"),
		ToggleHold:        viper.GetDuration("rewind.toggleHold"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the telemetry sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL:     viper.GetString("influx.url"),
		Token:   viper.GetString("influx.token"),
		Org:     viper.GetString("influx.org"),
		Bucket:  viper.GetString("influx.bucket"),
	}
}
