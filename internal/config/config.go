package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	FrontendURL string
	// PublicURL is this server's own externally reachable base URL.
	// Barion calls it back server-to-server, so it must not point at
	// the storefront SPA.
	PublicURL string

	// Soft-hold windows for the reservation manager.
	ReservationTTL time.Duration // cart -> checkout hold
	CheckoutTTL    time.Duration // hold while the shopper is at the gateway
	SweepInterval  time.Duration

	// Barion payment gateway.
	BarionBaseURL    string
	BarionPOSKey     string
	BarionPayeeEmail string

	// Billingo invoicing.
	BillingoEnabled bool
	BillingoAPIKey  string
	BillingoBlockID int

	// Packeta parcel lockers.
	PacketaAPIPassword string
	PacketaAPIID       string

	// Resend transactional email.
	ResendAPIKey    string
	ResendFromEmail string
}

func Load() Config {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	barionBase := "https://api.test.barion.com"
	if getenv("BARION_ENVIRONMENT", "test") == "production" {
		barionBase = "https://api.barion.com"
	}

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DBDSN:       getenv("DB_DSN", "vintagevibes.db"),
		LogFile:     getenv("LOG_FILE", "./vintagevibes.log"),
		FrontendURL: getenv("FRONTEND_URL", "https://www.vintagevibes.hu"),
		PublicURL:   getenv("PUBLIC_URL", "http://localhost:"+getenv("PORT", "8080")),

		ReservationTTL: minutes("RESERVATION_TTL_MIN", 15),
		CheckoutTTL:    minutes("CHECKOUT_TTL_MIN", 30),
		SweepInterval:  seconds("SWEEP_INTERVAL_SEC", 60),

		BarionBaseURL:    barionBase,
		BarionPOSKey:     os.Getenv("BARION_POS_KEY"),
		BarionPayeeEmail: os.Getenv("BARION_PAYEE_EMAIL"),

		BillingoEnabled: getenv("BILLINGO_ENABLED", "") == "true",
		BillingoAPIKey:  os.Getenv("BILLINGO_API_KEY"),
		BillingoBlockID: number("BILLINGO_BLOCK_ID", 0),

		PacketaAPIPassword: os.Getenv("PACKETA_API_PASSWORD"),
		PacketaAPIID:       os.Getenv("PACKETA_API_ID"),

		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendFromEmail: getenv("RESEND_FROM_EMAIL", "onboarding@resend.dev"),
	}

	log.Printf("[config] PORT=%s DB_DSN=%s PUBLIC_URL=%s FRONTEND_URL=%s BARION=%s SWEEP=%s",
		cfg.Port, cfg.DBDSN, cfg.PublicURL, cfg.FrontendURL, cfg.BarionBaseURL, cfg.SweepInterval)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func number(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func minutes(key string, def int) time.Duration {
	return time.Duration(number(key, def)) * time.Minute
}

func seconds(key string, def int) time.Duration {
	return time.Duration(number(key, def)) * time.Second
}
