package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port string

	MongoURI      string
	MongoDatabase string

	StoreBackend    string
	UserDataBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OverpassURL      string
	OverpassTimeout  time.Duration
	OverpassCacheTTL time.Duration
	DegradedFallback bool

	NominatimURL   string
	GeocodeTimeout time.Duration
	UserAgent      string

	FeedMaxEntries int

	JWTSecret     string
	JWTTTL        time.Duration
	AdminAccounts string

	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := getEnv("PORT", "5000")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &Config{
		Port:             port,
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "restaurantdb"),
		StoreBackend:     backend("STORE_BACKEND"),
		UserDataBackend:  backend("USERDATA_BACKEND"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		OverpassURL:      getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout:  getDuration("OVERPASS_TIMEOUT", 25*time.Second),
		OverpassCacheTTL: getDuration("OVERPASS_CACHE_TTL", 10*time.Minute),
		DegradedFallback: getBool("DEGRADED_FALLBACK", false),
		NominatimURL:     getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:   getDuration("GEOCODE_TIMEOUT", 10*time.Second),
		UserAgent:        getEnv("HTTP_USER_AGENT", "tastemap/1.0"),
		FeedMaxEntries:   getInt("FEED_MAX_ENTRIES", 1000),
		JWTSecret:        jwtSecret(),
		JWTTTL:           getDuration("JWT_TTL", 12*time.Hour),
		AdminAccounts:    os.Getenv("ADMIN_ACCOUNTS"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
	}
}

// UsesMongo reports whether any component is backed by MongoDB.
func (c *Config) UsesMongo() bool {
	return c.StoreBackend == BackendMongo || c.UserDataBackend == BackendMongo
}

func backend(key string) string {
	v := strings.ToLower(getEnv(key, BackendMongo))
	if v != BackendMemory {
		return BackendMongo
	}
	return v
}

// jwtSecret returns JWT_SECRET, or a random per-process secret when it is unset.
func jwtSecret() string {
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		return v
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate JWT secret: %v", err)
	}
	log.Println("⚠️ JWT_SECRET is not set; using a random secret, admin tokens will not survive a restart")
	return hex.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
