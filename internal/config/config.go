package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Shotstack ShotstackConfig
	Pexels    PexelsConfig
	TTS       TTSConfig
	R2        R2Config
	Playback  PlaybackConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RemixPerHour int
}

// ShotstackConfig drives the render client. PollInterval is in seconds;
// MaxPollAttempts bounds the wait loop regardless of what the service
// reports about its own progress.
type ShotstackConfig struct {
	APIKey          string
	BaseURL         string
	PollInterval    int
	MaxPollAttempts int
	Resolution      string
	FPS             int
	Quality         string
}

type PexelsConfig struct {
	APIKey      string
	BaseURL     string
	PerPage     int
	MinDuration int
}

type TTSConfig struct {
	APIKey         string
	BaseURL        string
	VoiceID        string
	ModelID        string
	TargetLanguage string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	ArchiveRenders  bool
}

type PlaybackConfig struct {
	CacheTTLMinutes int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("SHOTSTACK_API_KEY")
	readSecret("PEXELS_API_KEY")
	readSecret("ELEVENLABS_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.remix_per_hour", "RATELIMIT_REMIX_PER_HOUR")
	_ = viper.BindEnv("shotstack.api_key", "SHOTSTACK_API_KEY")
	_ = viper.BindEnv("shotstack.base_url", "SHOTSTACK_BASE_URL")
	_ = viper.BindEnv("shotstack.poll_interval", "SHOTSTACK_POLL_INTERVAL")
	_ = viper.BindEnv("shotstack.max_poll_attempts", "SHOTSTACK_MAX_POLL_ATTEMPTS")
	_ = viper.BindEnv("shotstack.resolution", "SHOTSTACK_RESOLUTION")
	_ = viper.BindEnv("shotstack.fps", "SHOTSTACK_FPS")
	_ = viper.BindEnv("shotstack.quality", "SHOTSTACK_QUALITY")
	_ = viper.BindEnv("pexels.api_key", "PEXELS_API_KEY")
	_ = viper.BindEnv("pexels.base_url", "PEXELS_BASE_URL")
	_ = viper.BindEnv("pexels.per_page", "PEXELS_PER_PAGE")
	_ = viper.BindEnv("pexels.min_duration", "PEXELS_MIN_DURATION")
	_ = viper.BindEnv("tts.api_key", "ELEVENLABS_API_KEY")
	_ = viper.BindEnv("tts.base_url", "ELEVENLABS_BASE_URL")
	_ = viper.BindEnv("tts.voice_id", "ELEVENLABS_VOICE_ID")
	_ = viper.BindEnv("tts.model_id", "ELEVENLABS_MODEL_ID")
	_ = viper.BindEnv("tts.target_language", "TTS_TARGET_LANGUAGE")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("r2.archive_renders", "R2_ARCHIVE_RENDERS")
	_ = viper.BindEnv("playback.cache_ttl_minutes", "PLAYBACK_CACHE_TTL_MINUTES")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.remix_per_hour", 10)

	// Shotstack defaults: 30 attempts x 10s = 5 minutes maximum wait
	viper.SetDefault("shotstack.base_url", "https://api.shotstack.io/v1")
	viper.SetDefault("shotstack.poll_interval", 10)
	viper.SetDefault("shotstack.max_poll_attempts", 30)
	viper.SetDefault("shotstack.resolution", "hd")

	// Pexels defaults
	viper.SetDefault("pexels.base_url", "https://api.pexels.com")
	viper.SetDefault("pexels.per_page", 5)
	viper.SetDefault("pexels.min_duration", 5)

	// TTS defaults
	viper.SetDefault("tts.base_url", "https://api.elevenlabs.io")
	viper.SetDefault("tts.model_id", "eleven_monolingual_v1")
	viper.SetDefault("tts.target_language", "en")

	// Playback defaults
	viper.SetDefault("playback.cache_ttl_minutes", 30)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			RemixPerHour: viper.GetInt("ratelimit.remix_per_hour"),
		},
		Shotstack: ShotstackConfig{
			APIKey:          viper.GetString("shotstack.api_key"),
			BaseURL:         viper.GetString("shotstack.base_url"),
			PollInterval:    viper.GetInt("shotstack.poll_interval"),
			MaxPollAttempts: viper.GetInt("shotstack.max_poll_attempts"),
			Resolution:      viper.GetString("shotstack.resolution"),
			FPS:             viper.GetInt("shotstack.fps"),
			Quality:         viper.GetString("shotstack.quality"),
		},
		Pexels: PexelsConfig{
			APIKey:      viper.GetString("pexels.api_key"),
			BaseURL:     viper.GetString("pexels.base_url"),
			PerPage:     viper.GetInt("pexels.per_page"),
			MinDuration: viper.GetInt("pexels.min_duration"),
		},
		TTS: TTSConfig{
			APIKey:         viper.GetString("tts.api_key"),
			BaseURL:        viper.GetString("tts.base_url"),
			VoiceID:        viper.GetString("tts.voice_id"),
			ModelID:        viper.GetString("tts.model_id"),
			TargetLanguage: viper.GetString("tts.target_language"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
			ArchiveRenders:  viper.GetBool("r2.archive_renders"),
		},
		Playback: PlaybackConfig{
			CacheTTLMinutes: viper.GetInt("playback.cache_ttl_minutes"),
		},
	}

	return cfg, nil
}
