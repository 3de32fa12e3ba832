package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile = "./configs/.env"
	envFileVar     = "STREEK_ENV_FILE"
)

var (
	once     sync.Once
	instance *Config
)

type Config struct {
}

// New loads the env file once. Variables already set in the environment win,
// and a missing file is fine when everything comes from the environment.
func New() *Config {
	once.Do(func() {
		path := os.Getenv(envFileVar)
		if path == "" {
			path = defaultEnvFile
		}
		err := godotenv.Load(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Fatal("loading envs error: ", err)
			}
			log.Printf("env file %s not found, using environment only", path)
		}
		instance = &Config{}
	})
	return instance
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

func (c *Config) GetStringOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration in %s: %v, using %s", key, err, def)
		return def
	}
	return d
}

// GetLocation resolves an IANA zone name; empty or "Local" means the host zone.
func (c *Config) GetLocation(key string) (*time.Location, error) {
	name := os.Getenv(key)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.New("loading location error: " + err.Error())
	}
	return loc, nil
}
