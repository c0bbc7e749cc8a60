package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the arena's configuration values.
type Config struct {
	ArenaHost     string        // Host IP the relay server binds to
	ArenaPort     int           // Port for the relay server
	ArenaName     string        // Arena name, used for the ownership lock and event channel
	ServerAddr    string        // Relay address the client dials
	MaxClients    int           // Arena capacity, must match on both ends
	ClientLog     string        // File the client logs to while the terminal is in use
	WindowWidth   int32         // Arena width in pixels
	WindowHeight  int32         // Arena height in pixels
	SegmentSize   int32         // Edge of one snake segment in pixels
	TickPeriod    time.Duration // Client simulate/render/send period
	AdminAddr     string        // Listen address for the admin API, empty disables it
	AdminPassword string        // Operator password for the admin API
	JWTSecret     string        // Secret key for JWT signing
	JWTIssuer     string        // Issuer claim for JWTs
	RedisAddr     string        // Redis address for events and the arena lock, empty disables both
	RedisPassword string        // Redis password
	GinMode       string        // Mode for the Gin framework (e.g., release, debug, test)
}

// Default values shared by the relay server and the client.
const (
	DefaultArenaPort    = 58920
	DefaultMaxClients   = 4
	DefaultWindowWidth  = 1500
	DefaultWindowHeight = 900
	DefaultSegmentSize  = 20
	DefaultTickMillis   = 100
)

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	port := getEnvAsIntWithDefault("ARENA_PORT", DefaultArenaPort)
	return Config{
		ArenaHost:     getEnvWithDefault("ARENA_HOST", "0.0.0.0"),
		ArenaPort:     port,
		ArenaName:     getEnvWithDefault("ARENA_NAME", "default"),
		ServerAddr:    getEnvWithDefault("SERVER_ADDR", "127.0.0.1:"+strconv.Itoa(port)),
		MaxClients:    getEnvAsIntWithDefault("MAX_CLIENTS", DefaultMaxClients),
		ClientLog:     getEnvWithDefault("CLIENT_LOG", "vinom-client.log"),
		WindowWidth:   int32(getEnvAsIntWithDefault("WINDOW_WIDTH", DefaultWindowWidth)),
		WindowHeight:  int32(getEnvAsIntWithDefault("WINDOW_HEIGHT", DefaultWindowHeight)),
		SegmentSize:   int32(getEnvAsIntWithDefault("SEGMENT_SIZE", DefaultSegmentSize)),
		TickPeriod:    time.Duration(getEnvAsIntWithDefault("TICK_MS", DefaultTickMillis)) * time.Millisecond,
		AdminAddr:     getEnvWithDefault("ADMIN_ADDR", ""),
		AdminPassword: getEnvWithDefault("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnvWithDefault("JWT_SECRET", ""),
		JWTIssuer:     getEnvWithDefault("JWT_ISSUER", "vinom-arena"),
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
		GinMode:       getEnvWithDefault("GIN_MODE", "release"),
	}
}

// getEnvAsIntWithDefault retrieves the value of an environment variable as an integer,
// or returns a default value if not set. A value that cannot be parsed is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
