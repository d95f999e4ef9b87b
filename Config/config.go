package Config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultJWTSecret signs sessions when JWT_SECRET is unset. Only fit for
// local development.
const DefaultJWTSecret = "secret"

// Config holds every setting the portal reads from the environment.
type Config struct {
	HTTPAddr      string
	DBDriver      string
	DBDSN         string
	JWTSecret     string
	ServiceAPIKey string
	LogLevel      string
	LogFile       string
	// Write JSON request bodies to the request log
	LogRequestBody bool

	SMTPServer    string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	SMTPFromName  string
	SMTPTLS       bool

	SlackToken   string
	SlackChannel string

	ReminderSchedule string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Config{}, errors.Wrapf(err, "load %s", f)
			}
		}
	}

	cfg := Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":3001"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		DBDSN:            getEnv("DB_DSN", "database.db"),
		JWTSecret:        getEnv("JWT_SECRET", DefaultJWTSecret),
		ServiceAPIKey:    os.Getenv("SERVICE_API_KEY"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		LogFile:          getEnv("LOG_FILE", "logs/requests.log"),
		SMTPServer:       os.Getenv("SMTP_SERVER"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFromEmail:    os.Getenv("SMTP_FROM_EMAIL"),
		SMTPFromName:     getEnv("SMTP_FROM_NAME", "Årshjul"),
		SlackToken:       os.Getenv("SLACK_TOKEN"),
		SlackChannel:     os.Getenv("SLACK_CHANNEL"),
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 0 7 1 * *"),
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse SMTP_PORT")
	}
	cfg.SMTPPort = port

	tls, err := strconv.ParseBool(getEnv("SMTP_TLS", "false"))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse SMTP_TLS")
	}
	cfg.SMTPTLS = tls

	logBody, err := strconv.ParseBool(getEnv("LOG_REQUEST_BODY", "false"))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse LOG_REQUEST_BODY")
	}
	cfg.LogRequestBody = logBody

	switch cfg.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return Config{}, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// EmailEnabled reports whether enough SMTP settings are present to send mail.
func (c Config) EmailEnabled() bool {
	return c.SMTPServer != "" && c.SMTPFromEmail != ""
}

// DefaultSecret reports whether sessions are signed with DefaultJWTSecret.
func (c Config) DefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// SlackEnabled reports whether reminders should also be posted to Slack.
func (c Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
