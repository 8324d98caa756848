package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Reminders RemindersConfig `mapstructure:"reminders"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type WhatsAppConfig struct {
	APIURL               string `mapstructure:"api_url"`
	PhoneNumberID        string `mapstructure:"phone_number_id"`
	AccessToken          string `mapstructure:"access_token"`
	Language             string `mapstructure:"language"`
	TemplateConfirmation string `mapstructure:"template_confirmation"`
	TemplateReminder     string `mapstructure:"template_reminder"`
	RatePerSecond        int    `mapstructure:"rate_per_second"`
	Simulate             bool   `mapstructure:"simulate"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// RemindersConfig drives the D-1 scheduling policy and the dispatch sweep.
type RemindersConfig struct {
	SendTime         string        `mapstructure:"send_time"`
	Timezone         string        `mapstructure:"timezone"`
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	StalenessTimeout time.Duration `mapstructure:"staleness_timeout"`
	Workers          int           `mapstructure:"workers"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)

	viper.SetDefault("whatsapp.api_url", "https://graph.facebook.com/v18.0")
	viper.SetDefault("whatsapp.language", "es_CO")
	viper.SetDefault("whatsapp.template_confirmation", "serviconli_cita_confirmada")
	viper.SetDefault("whatsapp.template_reminder", "serviconli_recordatorio_cita_manana")
	viper.SetDefault("whatsapp.rate_per_second", 10)

	viper.SetDefault("reminders.send_time", "08:00")
	viper.SetDefault("reminders.timezone", "America/Bogota")
	viper.SetDefault("reminders.batch_size", 50)
	viper.SetDefault("reminders.poll_interval", time.Minute)
	viper.SetDefault("reminders.max_attempts", 3)
	viper.SetDefault("reminders.staleness_timeout", 10*time.Minute)
	viper.SetDefault("reminders.workers", 4)
}
