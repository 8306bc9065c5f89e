package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN string
	RedisURL string
	Port     string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN: getenv("MYSQL_DSN", "hive:hive@tcp(127.0.0.1:3306)/hive"),
		RedisURL: getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		Port:     getenv("PORT", "8080"),
	}
}
