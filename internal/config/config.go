package config

import (
	"log"
	"os"
)

type Config struct {
	Port      string
	DBDSN     string
	RedisAddr string
	LogFile   string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shoplite.db"
	} // sqlite file in project root
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shoplite.log" // default log sink in project root
	}

	cfg := Config{Port: port, DBDSN: dsn, RedisAddr: redisAddr, LogFile: logFile}
	log.Printf("[config] PORT=%s DB_DSN=%s REDIS_ADDR=%s LOG_FILE=%s", cfg.Port, cfg.DBDSN, cfg.RedisAddr, cfg.LogFile)
	return cfg
}
