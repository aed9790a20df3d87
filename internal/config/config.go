package config

import (
	"time"

	"github.com/spf13/viper"

	"emnnit/console/internal/live"
)

type Config struct {
	HTTPAddr             string
	InstituteBaseURL     string
	RedisAddr            string
	RedisPassword        string
	UpdateChannel        string
	RequestTimeout       time.Duration
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	Env                  string
	LogLevel             string
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8084")
	v.SetDefault("INSTITUTE_BASE_URL", "http://127.0.0.1:9000")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("UPDATE_CHANNEL", live.DefaultChannel)
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("SESSION_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	return Config{
		HTTPAddr:             v.GetString("HTTP_ADDR"),
		InstituteBaseURL:     v.GetString("INSTITUTE_BASE_URL"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		UpdateChannel:        v.GetString("UPDATE_CHANNEL"),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		SessionSweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
	}
}
