package config

import (
	"errors"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Addr          string
	DBUrl         string
	RedisUrl      string
	TokenSecret   string
	TokenTTL      time.Duration
	Debug         bool
	LogJSON       bool
	PublicBaseURL string
}

// Flags holds the raw flag values until Load turns them into a Config.
type Flags struct {
	host string
	port uint
	cfg  Config
}

// LoadEnv reads variables from the given env files, .env by default.
// Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Bind registers the server flags on fs. Defaults come from QF_* environment
// variables when set.
func Bind(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.host, "host", env("QF_HOST", "0.0.0.0"), "listen host name")
	fs.UintVar(&f.port, "port", envUint("QF_PORT", 80), "listen port number")
	fs.StringVar(&f.cfg.DBUrl, "db-url", env("QF_DB_URL", "qform.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&f.cfg.RedisUrl, "redis-url", env("QF_REDIS_URL", ""), "redis://host:port/db for click counters (default: count in the DB)")
	fs.StringVar(&f.cfg.TokenSecret, "token-secret", env("QF_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	fs.DurationVar(&f.cfg.TokenTTL, "token-ttl", envDuration("QF_TOKEN_TTL", 120*time.Second), "access token TTL")
	fs.BoolVar(&f.cfg.Debug, "debug", env("QF_DEBUG", "") != "", "log at DEBUG level")
	fs.BoolVar(&f.cfg.LogJSON, "log-json", env("QF_LOG_JSON", "") != "", "log as JSON lines")
	fs.StringVar(&f.cfg.PublicBaseURL, "public-url", env("QF_PUBLIC_URL", ""), "base URL of share links (default: the listen URL)")
	return f
}

// Config validates the parsed flags.
func (f *Flags) Config() (cfg Config, err error) {
	cfg = f.cfg
	cfg.Addr = net.JoinHostPort(f.host, strconv.Itoa(int(f.port)))

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter --token-secret")
		return
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = cfg.Url()
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// ShareLink is the public URL of a short code.
func (cfg Config) ShareLink(code string) string {
	return cfg.PublicBaseURL + "/f/" + code
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envUint(key string, def uint) uint {
	n, err := strconv.ParseUint(env(key, ""), 10, 0)
	if err != nil {
		return def
	}
	return uint(n)
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(env(key, ""))
	if err != nil {
		return def
	}
	return d
}
