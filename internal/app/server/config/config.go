package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = "localhost:8080"
	defaultEnv        = EnvLocal
	defaultMigrations = "migrations"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Logger Logger
}

type DB struct {
	DatabaseURI string
	Migrations  string
}

type Server struct {
	RunAddress string
}

type Logger struct {
	LogLevel string
}

// MustLoad reads the server configuration from the environment,
// optionally seeded from a .env file.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("LOG_LEVEL", "info")

	return &Config{
		Env: viper.GetString("APP_ENV"),
		DB: DB{
			DatabaseURI: viper.GetString("DATABASE_URI"),
			Migrations:  viper.GetString("MIGRATIONS_PATH"),
		},
		Server: Server{RunAddress: viper.GetString("RUN_ADDRESS")},
		Logger: Logger{LogLevel: viper.GetString("LOG_LEVEL")},
	}
}
