package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	DBUrl      string
	CORSOrigin string
	Debug      bool
}

// ParseFlags builds the configuration from command line flags, falling back
// to environment variables (a .env file is loaded first if present).
func ParseFlags() (cfg Config, err error) {
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("SURVEY_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envOrUint("SURVEY_PORT", 8080), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("SURVEY_DB_URL", "survey.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.CORSOrigin, "cors-origin", envOr("SURVEY_CORS_ORIGIN", "*"), "allowed CORS origin")
	flag.BoolVar(&cfg.Debug, "debug", os.Getenv("SURVEY_DEBUG") == "true", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrUint(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
