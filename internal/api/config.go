package api

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string // CORS allowed origins (empty = allow all)
}

// ServerConfig is the active server configuration.
var ServerConfig Config
