package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMemory   = "memory"
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		School   SchoolConfig
		Email    EmailConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Path          string // sqlite3 file
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	SchoolConfig struct {
		Name       string
		ActiveYear string // fallback when no year is stored in the settings collection
		Currency   string // display only
	}

	EmailConfig struct {
		From           string
		SendgridApiKey string
	}
)

// Address returns the postgres host:port pair.
func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// DefaultFromEmail parses the configured sender, falling back to noreply@localhost.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.Email.From); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if any) and the environment.
// Environment variables are prefixed with the upper-cased ENV, eg: DEV_DATABASE_ENGINE.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Ecolage")
	v.SetDefault("secretKey", "k2#r8v!x0b$+ta=qe&m5s(w9)n@c4(yu^h7$ecolage-dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpiration", 12*time.Hour)
	v.SetDefault("server.jwtRefreshExpiration", 7*24*time.Hour)
	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.path", "ecolage.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ecolage")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("school.name", "")
	v.SetDefault("school.activeYear", "")
	v.SetDefault("school.currency", "FCFA")
	v.SetDefault("email.from", "")
	v.SetDefault("email.sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.engine", EngineMemory)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := workDir()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugAddress:              v.GetString("server.debugAddress"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpiration"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpiration"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Path:          v.GetString("database.path"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		School: SchoolConfig{
			Name:       v.GetString("school.name"),
			ActiveYear: CleanString(v.GetString("school.activeYear")),
			Currency:   v.GetString("school.currency"),
		},
		Email: EmailConfig{
			From:           v.GetString("email.from"),
			SendgridApiKey: v.GetString("email.sendgridApiKey"),
		},
	}
}

// workDir is the directory holding `config/`; ECOLAGE_HOME overrides the current directory.
func workDir() string {
	if home := os.Getenv("ECOLAGE_HOME"); home != "" {
		return home
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return wd
}
