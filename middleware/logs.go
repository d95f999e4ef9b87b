package middleware

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Log to the shared logger
	Console bool
	// Append JSON lines to LogFilePath
	File        bool
	LogFilePath string
	// Include request body in logs
	IncludeBody bool
	// Skip logging for specific paths
	SkipPaths []string
}

// LogData is one request as written to the log file
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	RequestBody   interface{}   `json:"request_body,omitempty"`
	Error         string        `json:"error,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	Username      string        `json:"username,omitempty"`
	ContentLength int64         `json:"content_length"`
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:     true,
		File:        true,
		LogFilePath: "logs/requests.log",
		SkipPaths:   []string{"/health"},
	}
}

// LoggingMiddleware creates a new logging middleware with the given configuration
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	var mu sync.Mutex
	if cfg.File {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			Logging.GetLogger().Errorf("Error creating logs directory: %v", err)
		}
	}

	return func(c *fiber.Ctx) error {
		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		start := time.Now()
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet {
			if body := c.Body(); len(body) > 0 {
				var jsonData interface{}
				if err := json.Unmarshal(body, &jsonData); err == nil {
					requestBody = redact(jsonData)
				} else {
					requestBody = string(body)
				}
			}
		}

		err := c.Next()

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     requestID,
			RequestBody:   requestBody,
			ContentLength: int64(len(c.Response().Body())),
		}
		if user, ok := CurrentUser(c); ok {
			data.UserID = user.ID
			data.Username = user.Name
		}
		if err != nil {
			data.Error = err.Error()
		}

		if cfg.Console {
			logConsole(data)
		}
		if cfg.File {
			mu.Lock()
			logToFile(cfg.LogFilePath, data)
			mu.Unlock()
		}
		return err
	}
}

func logConsole(data LogData) {
	entry := Logging.GetLogger().WithFields(logrus.Fields{
		"status":     data.Status,
		"latency":    data.Latency.String(),
		"ip":         data.IP,
		"request_id": data.RequestID,
	})
	if data.UserID != 0 {
		entry = entry.WithField("user", fmt.Sprintf("%d(%s)", data.UserID, data.Username))
	}
	msg := fmt.Sprintf("%s %s", data.Method, data.Path)
	switch {
	case data.Status >= 500 || data.Error != "":
		entry.WithField("error", data.Error).Error(msg)
	case data.Status >= 400:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}

// logToFile appends the entry as one JSON line
func logToFile(filePath string, data LogData) {
	line, err := json.Marshal(data)
	if err != nil {
		Logging.GetLogger().Errorf("Error encoding log entry: %v", err)
		return
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		Logging.GetLogger().Errorf("Error opening log file: %v", err)
		return
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		Logging.GetLogger().Errorf("Error writing to log file: %v", err)
	}
}

// redactedKeys never reach the log file
var redactedKeys = map[string]bool{"password": true, "token": true}

func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, inner := range t {
			if redactedKeys[strings.ToLower(k)] {
				t[k] = "[redacted]"
				continue
			}
			t[k] = redact(inner)
		}
	case []interface{}:
		for i := range t {
			t[i] = redact(t[i])
		}
	}
	return v
}

// RequestLogger logs every request except health checks to logFile.
// includeBody adds JSON request bodies, with credentials redacted.
func RequestLogger(logFile string, includeBody bool) fiber.Handler {
	return LoggingMiddleware(LogConfig{
		Console:     true,
		File:        logFile != "",
		LogFilePath: logFile,
		IncludeBody: includeBody,
		SkipPaths:   []string{"/health"},
	})
}
