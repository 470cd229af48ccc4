package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Auth struct {
	AccessSecret     string
	RefreshSecret    string
	ActivationSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type S3 struct {
	Bucket string
	Prefix string
}

type Config struct {
	Env      string
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Auth     Auth
	SMTP     SMTP
	S3       S3
}

// Production reports whether the service runs in production mode,
// which stops echoing activation codes in responses.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Development reports whether the service runs on a developer machine.
// Any other environment, staging included, gets secure cookies.
func (c *Config) Development() bool {
	return c.Env == "development"
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:      getenv("ENV", "development"),
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Auth:     *newAuth(),
		SMTP:     *newSMTP(),
		S3:       *newS3(),
	}

	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", ""),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "learnhub"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newAuth() *Auth {
	return &Auth{
		AccessSecret:     mustGetenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret:    mustGetenv("REFRESH_TOKEN_SECRET"),
		ActivationSecret: mustGetenv("ACTIVATION_TOKEN_SECRET"),
		AccessTTL:        getenvSeconds("ACCESS_TOKEN_EXPIRATION", 5*time.Minute),
		RefreshTTL:       getenvSeconds("REFRESH_TOKEN_EXPIRATION", 3*24*time.Hour),
	}
}

func newSMTP() *SMTP {
	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		log.Fatalf("%s invalid SMTP_PORT : %v", logtag, err)
	}
	return &SMTP{
		Host:     getenv("SMTP_HOST", ""),
		Port:     port,
		User:     getenv("SMTP_USER", ""),
		Password: getenv("SMTP_PASSWORD", ""),
		From:     getenv("SMTP_FROM", "no-reply@learnhub.dev"),
	}
}

func newS3() *S3 {
	return &S3{
		Bucket: getenv("S3_BUCKET", "learnhub-assets"),
		Prefix: getenv("S3_PREFIX", "uploads/"),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func mustGetenv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("%s %s is required", logtag, key)
	}
	return val
}

// getenvSeconds reads a TTL expressed in whole seconds.
func getenvSeconds(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("%s %s must be an integer number of seconds : %v", logtag, key, err)
	}
	return time.Duration(secs) * time.Second
}
