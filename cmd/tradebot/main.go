package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/atlasmarkets/tradebot/internal/api"
	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/dialog"
	"github.com/atlasmarkets/tradebot/internal/lockfile"
	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/store"
	"github.com/atlasmarkets/tradebot/internal/twiliowhatsapp"
	"github.com/atlasmarkets/tradebot/internal/util"
	"github.com/atlasmarkets/tradebot/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for tradebot state data
	DefaultStateDir = "/var/lib/tradebot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "tradebot.db"
	// DefaultWhatsmeowDBFileName is the default whatsmeow session database filename
	DefaultWhatsmeowDBFileName = "whatsmeow.db"
)

// Messaging channel selectors.
const (
	channelTwilio   = "twilio"
	channelWhatsApp = "whatsapp"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping tradebot",
		"state_dir", *flags.stateDir, "channel", *flags.channel, "api_addr", *flags.apiAddr)
	if err := run(ctx, flags); err != nil {
		slog.Error("tradebot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("tradebot exited successfully")
}

func run(ctx context.Context, flags Flags) error {
	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := backend.NewClient(
		backend.WithBaseURL(*flags.backendURL),
		backend.WithAPIKey(*flags.backendKey),
	)
	if err != nil {
		return err
	}

	svc, webhook, err := buildMessagingService(flags)
	if err != nil {
		return err
	}
	defer svc.Stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	engine := dialog.NewEngine(gw, svc)
	turns := dialog.NewTurnHandler(engine, st, svc)
	go turns.Run(ctx)

	server := api.NewServer(webhook, api.WithAddr(*flags.apiAddr))
	return server.Run(ctx)
}

// buildStore selects the session store backend from the DSN shape.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Using PostgreSQL session store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Info("Using SQLite session store", "path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildMessagingService constructs the selected messaging channel. Twilio
// delivers inbound events through the returned webhook handler; the direct
// WhatsApp channel receives them over its own connection and needs none.
func buildMessagingService(flags Flags) (messaging.Service, http.HandlerFunc, error) {
	switch *flags.channel {
	case channelWhatsApp:
		opts := []whatsapp.Option{whatsapp.WithDBDSN(*flags.whatsmeowDSN)}
		if *flags.qrOutput != "" {
			opts = append(opts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			opts = append(opts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(opts...)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewWhatsAppService(client), nil, nil

	default:
		client, err := twiliowhatsapp.NewClient(
			twiliowhatsapp.WithAccountSID(*flags.twilioSID),
			twiliowhatsapp.WithAuthToken(*flags.twilioToken),
			twiliowhatsapp.WithFromWhats(*flags.twilioFrom),
		)
		if err != nil {
			return nil, nil, err
		}
		svc := messaging.NewTwilioService(client)
		return svc, svc.WebhookHandler, nil
	}
}

// Config holds environment configuration
type Config struct {
	StateDir     string
	DatabaseURL  string
	WhatsmeowDSN string
	Channel      string
	BackendURL   string
	BackendKey   string
	TwilioSID    string
	TwilioToken  string
	TwilioFrom   string
	APIAddr      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	whatsmeowDSN *string
	channel      *string
	backendURL   *string
	backendKey   *string
	twilioSID    *string
	twilioToken  *string
	twilioFrom   *string
	apiAddr      *string
	qrOutput     *string
	numeric      *bool
}

// initializeLogger sets up structured logging on stdout.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("TRADEBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:     util.GetEnv("TRADEBOT_STATE_DIR", DefaultStateDir),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		WhatsmeowDSN: os.Getenv("WHATSAPP_DB_DSN"),
		Channel:      util.GetEnv("TRADEBOT_CHANNEL", channelTwilio),
		BackendURL:   os.Getenv("BROKER_API_URL"),
		BackendKey:   os.Getenv("BROKER_API_KEY"),
		TwilioSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:   os.Getenv("TWILIO_WHATSAPP_FROM"),
		APIAddr:      util.GetEnv("API_ADDR", api.DefaultAddr),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsmeowDSN == "" {
		config.WhatsmeowDSN = filepath.Join(config.StateDir, DefaultWhatsmeowDBFileName)
	}

	slog.Debug("environment variables loaded",
		"TRADEBOT_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"TRADEBOT_CHANNEL", config.Channel,
		"BROKER_API_URL_SET", config.BackendURL != "",
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "Directory for tradebot state data"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "Session database DSN (SQLite path or postgres:// URL)"),
		whatsmeowDSN: flag.String("whatsmeow-dsn", config.WhatsmeowDSN, "whatsmeow session database DSN"),
		channel:      flag.String("channel", config.Channel, "Messaging channel: twilio or whatsapp"),
		backendURL:   flag.String("backend-url", config.BackendURL, "Broker backend API base URL"),
		backendKey:   flag.String("backend-key", config.BackendKey, "Broker backend API key"),
		twilioSID:    flag.String("twilio-sid", config.TwilioSID, "Twilio account SID"),
		twilioToken:  flag.String("twilio-token", config.TwilioToken, "Twilio auth token"),
		twilioFrom:   flag.String("twilio-from", config.TwilioFrom, "Twilio WhatsApp sender (whatsapp:+1...)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server listen address"),
		qrOutput:     flag.String("qr-output", "", "Write the WhatsApp login QR code to this path"),
		numeric:      flag.Bool("numeric-code", false, "Use a numeric WhatsApp login code instead of a QR code"),
	}
	flag.Parse()
	return flags
}
