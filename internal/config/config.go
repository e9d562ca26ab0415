package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, loaded once at startup.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret string
	JWTTTL    time.Duration

	Location      *time.Location
	SessionLength time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	SendgridAPIKey  string
	MailFromName    string
	MailFromAddress string

	LogLevel  string
	LogFormat string
}

// DSN returns the postgres connection string. DATABASE_URL wins over the
// discrete DB_* keys.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func (c Config) IsDev() bool {
	return c.Env == "DEV" || c.Env == "TEST"
}

func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func (c Config) SendgridEnabled() bool {
	return c.SendgridAPIKey != "" && c.MailFromAddress != ""
}

// Load reads defaults, an optional dotenv file and the environment.
// ENV selects the dotenv file: config/.env.<env> first, then .env.
func Load() (Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if err := loadDotEnv(env); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_name", "institute")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_ttl", 72*time.Hour)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("tutoring_session_length", time.Hour)
	v.SetDefault("mail_from_name", "Institute")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.AutomaticEnv()

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid TIMEZONE %q: %w", v.GetString("timezone"), err)
	}

	cfg := Config{
		Env:              env,
		Port:             v.GetString("port"),
		DatabaseURL:      v.GetString("database_url"),
		DBHost:           v.GetString("db_host"),
		DBPort:           v.GetString("db_port"),
		DBUser:           v.GetString("db_user"),
		DBPassword:       v.GetString("db_password"),
		DBName:           v.GetString("db_name"),
		DBSSLMode:        v.GetString("db_sslmode"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTTTL:           v.GetDuration("jwt_ttl"),
		Location:         loc,
		SessionLength:    v.GetDuration("tutoring_session_length"),
		TwilioAccountSID: v.GetString("twilio_account_sid"),
		TwilioAuthToken:  v.GetString("twilio_auth_token"),
		TwilioFromNumber: v.GetString("twilio_from_number"),
		SendgridAPIKey:   v.GetString("sendgrid_api_key"),
		MailFromName:     v.GetString("mail_from_name"),
		MailFromAddress:  v.GetString("mail_from_address"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, errors.New("config: JWT_SECRET is required outside DEV/TEST")
		}
		cfg.JWTSecret = "dev-only-insecure-secret"
	}
	if cfg.SessionLength <= 0 {
		return Config{}, errors.New("config: TUTORING_SESSION_LENGTH must be positive")
	}
	return cfg, nil
}

func loadDotEnv(env string) error {
	candidates := []string{
		filepath.Join("config", ".env."+strings.ToLower(env)),
		".env",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("config: godotenv(%s): %w", path, err)
			}
			log.Printf("config: loaded %s", path)
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("config: stat(%s): %w", path, err)
		}
	}
	return nil
}
