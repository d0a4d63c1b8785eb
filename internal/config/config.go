package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LinkStoreKind string

const (
	LinkStoreRedis    LinkStoreKind = "redis"
	LinkStorePostgres LinkStoreKind = "postgres"
	LinkStoreMemory   LinkStoreKind = "memory"
)

// OpenDotaConfig 는 봇과 coplaycheck CLI 가 공유하는 OpenDota/상관 분석 설정.
type OpenDotaConfig struct {
	OpenDotaBaseURL string
	OpenDotaAPIKey  string
	OpenDotaTimeout time.Duration

	RecentMatchLimit       int
	DetailFetchConcurrency int
}

type AppConfig struct {
	OpenDotaConfig

	IrisBaseURL string
	IrisWSURL   string
	EgressMode  string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	AllowedRooms []string

	LinkStore   LinkStoreKind
	RedisURL    string
	DatabaseURL string

	MessagesDir string
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the environment.
func Load() (*AppConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// LoadOpenDota is Load for tools that only talk to OpenDota; IRIS_* is not required.
func LoadOpenDota() (OpenDotaConfig, error) {
	if err := loadEnvFile(); err != nil {
		return OpenDotaConfig{}, err
	}
	return OpenDotaFromEnv(), nil
}

// 파일이 없으면 무시한다. 이미 설정된 환경 변수는 덮어쓰지 않는다.
func loadEnvFile() error {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// OpenDotaFromEnv applies defaults to OPENDOTA_*, RECENT_MATCH_LIMIT and DETAIL_FETCH_CONCURRENCY.
func OpenDotaFromEnv() OpenDotaConfig {
	o := OpenDotaConfig{
		OpenDotaBaseURL:        "https://api.opendota.com/api",
		OpenDotaTimeout:        10 * time.Second,
		RecentMatchLimit:       20,
		DetailFetchConcurrency: 6,
	}
	if v := env("OPENDOTA_BASE_URL"); v != "" {
		o.OpenDotaBaseURL = strings.TrimRight(v, "/")
	}
	o.OpenDotaAPIKey = env("OPENDOTA_API_KEY")
	if n := positiveInt("OPENDOTA_TIMEOUT_SEC"); n > 0 {
		o.OpenDotaTimeout = time.Duration(n) * time.Second
	}
	if n := positiveInt("RECENT_MATCH_LIMIT"); n > 0 {
		o.RecentMatchLimit = n
	}
	// 동시 상세 조회는 20개로 제한 (OpenDota 요청 한도 보호).
	if n := positiveInt("DETAIL_FETCH_CONCURRENCY"); n > 0 {
		if n > 20 {
			n = 20
		}
		o.DetailFetchConcurrency = n
	}
	return o
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		OpenDotaConfig: OpenDotaFromEnv(),
		EgressMode:     "http",
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")
	if v := strings.ToLower(env("EGRESS_MODE")); v == "http" || v == "ws" || v == "auto" {
		cfg.EgressMode = v
	}

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	if v := env("ALLOWED_ROOMS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}

	// LINK_STORE 미지정 시 REDIS_URL → DATABASE_URL → 메모리 순으로 고른다.
	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	switch LinkStoreKind(strings.ToLower(env("LINK_STORE"))) {
	case LinkStoreRedis:
		cfg.LinkStore = LinkStoreRedis
	case LinkStorePostgres:
		cfg.LinkStore = LinkStorePostgres
	case LinkStoreMemory:
		cfg.LinkStore = LinkStoreMemory
	default:
		switch {
		case cfg.RedisURL != "":
			cfg.LinkStore = LinkStoreRedis
		case cfg.DatabaseURL != "":
			cfg.LinkStore = LinkStorePostgres
		default:
			cfg.LinkStore = LinkStoreMemory
		}
	}

	cfg.MessagesDir = env("MESSAGES_DIR")

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.LinkStore == LinkStoreRedis && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required for LINK_STORE=redis")
	}
	if cfg.LinkStore == LinkStorePostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for LINK_STORE=postgres")
	}

	return cfg, nil
}

// IrisHeaders returns the X-User-* headers the gateway expects, skipping empty ones.
func (c *AppConfig) IrisHeaders() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// RoomAllowed is true when no allow-list is configured or room is in it.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func positiveInt(k string) int {
	v := env(k)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
