package configs

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the process needs, loaded once in main and passed
// down explicitly.
type Config struct {
	Port          string `envconfig:"PORT" default:"4000"`
	MongoURI      string `envconfig:"MONGODB_URI" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DB" default:"storefront"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`

	PaystackSecretKey string        `envconfig:"PAYSTACK_SECRET_KEY" required:"true"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`

	BaseCurrency         string  `envconfig:"BASE_CURRENCY" default:"USD"`
	SettlementCurrency   string  `envconfig:"SETTLEMENT_CURRENCY" default:"NGN"`
	ExchangeRateFallback float64 `envconfig:"EXCHANGE_RATE_FALLBACK" default:"1600"`

	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env if present, then populates Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading config from environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
