// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath  = pflag.String("config", "", "Path to the config file (default ./config.toml)")
	MigrateOnly = pflag.Bool("migrate-only", false, "Run database migrations and exit")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvironments = []string{"development", "production"}
	validDrivers      = []string{"sqlite", "postgres"}
)

var errMissingSecret = errors.New("jwt secret is missing")

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	err := Load(*configPath)
	if errors.Is(err, errMissingSecret) {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

// Load reads the config file at path, or config.toml in the working
// directory when path is empty, and validates the result. Environment
// variables override the file.
func Load(path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors_origins", "HOST_CORS_ORIGINS")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.access_ttl", "JWT_ACCESS_TTL")
	v.BindEnv("jwt.refresh_ttl", "JWT_REFRESH_TTL")

	v.BindEnv("otp.ttl", "OTP_TTL")
	v.BindEnv("otp.cleanup_schedule", "OTP_CLEANUP_SCHEDULE")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")

	v.BindEnv("mail.enabled", "MAIL_ENABLED")
	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.from", "MAIL_FROM")

	v.BindEnv("queue.redis_addr", "QUEUE_REDIS_ADDR")
	v.BindEnv("queue.redis_password", "QUEUE_REDIS_PASSWORD")
	v.BindEnv("queue.redis_db", "QUEUE_REDIS_DB")
	v.BindEnv("queue.concurrency", "QUEUE_CONCURRENCY")
	v.BindEnv("queue.max_retry", "QUEUE_MAX_RETRY")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.argon_memory", "SECURITY_ARGON_MEMORY")
	v.BindEnv("security.argon_iterations", "SECURITY_ARGON_ITERATIONS")

	v.BindEnv("gate.protected_paths", "GATE_PROTECTED_PATHS")
	v.BindEnv("gate.auth_paths", "GATE_AUTH_PATHS")
	v.BindEnv("gate.signin_path", "GATE_SIGNIN_PATH")
	v.BindEnv("gate.home_path", "GATE_HOME_PATH")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.environment", "development")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("otp.ttl", "15m")
	v.SetDefault("otp.cleanup_schedule", "@every 10m")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "recipes.db")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.max_retry", 5)

	v.SetDefault("security.rate_limit", 5)
	v.SetDefault("security.argon_memory", 64*1024)
	v.SetDefault("security.argon_iterations", 3)

	v.SetDefault("gate.protected_paths", []string{"/dashboard", "/upload-recipe", "/profile", "/recipes"})
	v.SetDefault("gate.auth_paths", []string{"/signin", "/signup", "/verify"})
	v.SetDefault("gate.signin_path", "/signin")
	v.SetDefault("gate.home_path", "/")

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
		// Running purely from the environment is fine
	}

	return validate()
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validEnvironments, v.GetString("app.environment")) {
		return errors.New("app.environment must be development or production")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		return errMissingSecret
	}

	access, refresh := v.GetDuration("jwt.access_ttl"), v.GetDuration("jwt.refresh_ttl")
	if access <= 0 || refresh <= 0 {
		return errors.New("jwt.access_ttl and jwt.refresh_ttl must be positive durations")
	}

	if access >= refresh {
		return errors.New("jwt.access_ttl must be shorter than jwt.refresh_ttl")
	}

	if v.GetDuration("otp.ttl") <= 0 {
		return errors.New("otp.ttl must be a positive duration")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("no mail host provided")
		}

		if v.GetInt("mail.port") <= 0 {
			return errors.New("invalid mail port provided")
		}

		if v.GetString("mail.from") == "" {
			return errors.New("no mail sender address provided")
		}
	} else if v.GetString("app.environment") == "production" {
		return errors.New("mail must be enabled in production")
	}

	if v.GetString("queue.redis_addr") != "" && !v.GetBool("mail.enabled") {
		return errors.New("queue.redis_addr requires mail to be enabled")
	}

	if v.GetInt("queue.concurrency") <= 0 {
		return errors.New("queue.concurrency must be bigger than 0")
	}

	if v.GetFloat64("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetUint32("security.argon_memory") < 8*1024 || v.GetUint32("security.argon_iterations") == 0 {
		return errors.New("argon2 parameters are too weak")
	}

	if v.GetString("gate.signin_path") == "" || v.GetString("gate.home_path") == "" {
		return errors.New("gate.signin_path and gate.home_path can't be empty")
	}

	return nil
}

// Production reports whether the app runs with production settings, which
// among other things makes session cookies secure
func Production() bool {
	return v.GetString("app.environment") == "production"
}
