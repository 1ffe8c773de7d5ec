package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // в минутах
	} `yaml:"jwt"`

	// Flutterwave - внешний платежный шлюз
	Flutterwave struct {
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"secret_key"`
		RedirectURL string `yaml:"redirect_url"`
		TimeoutSec  int    `yaml:"timeout_sec"`
	} `yaml:"flutterwave"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig загружает конфигурацию из config.yaml или переменных окружения.
// Если DATABASE_URL задан - берем всё из окружения (режим теста/контейнера).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyEnvOverrides(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("Загрузка конфигурации из переменных окружения")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Flutterwave.BaseURL = getEnvDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3")
	cfg.Flutterwave.SecretKey = os.Getenv("FLUTTERWAVE_SECRET_KEY")
	cfg.Flutterwave.RedirectURL = getEnvDefault("FLUTTERWAVE_REDIRECT_URL", "http://localhost:4000/api/v1/payments/redirect")
	cfg.Flutterwave.TimeoutSec = 30

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	AppConfig = &cfg
}

// applyEnvOverrides позволяет переопределить секреты из окружения,
// чтобы не хранить их в config.yaml
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLUTTERWAVE_SECRET_KEY"); v != "" {
		cfg.Flutterwave.SecretKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		cfg.FirstAdminEmail = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		cfg.FirstAdminPassword = v
	}
	if cfg.Flutterwave.TimeoutSec <= 0 {
		cfg.Flutterwave.TimeoutSec = 30
	}
}

// GatewayTimeout возвращает таймаут HTTP-клиента шлюза
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Flutterwave.TimeoutSec) * time.Second
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
