// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masks personal data in production
// ============================================================================
// Negotiation transcripts and deal records can carry emails, phone numbers
// and VINs. These helpers mask them before anything reaches the logs when
// running in production mode.
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

var (
	// IsProduction controls whether masking is applied.
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	LogLevel = getLogLevel()
)

const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	phoneRegex = regexp.MustCompile(`(\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)

	// 17-character VIN; the standard alphabet excludes I, O and Q
	vinRegex = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)

	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// MaskString masks sensitive data in a string.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := input

	result = emailRegex.ReplaceAllString(result, "***@***.***")
	result = vinRegex.ReplaceAllString(result, "***VIN***")
	result = phoneRegex.ReplaceAllString(result, "***-***-****")

	result = uuidRegex.ReplaceAllStringFunc(result, func(id string) string {
		if len(id) > 8 {
			return id[:8] + "..."
		}
		return "***"
	})

	return result
}

// MaskVIN keeps only the last four characters of a VIN.
func MaskVIN(vin string) string {
	if !IsProduction {
		return vin
	}
	if len(vin) <= 4 {
		return "***"
	}
	return "***" + vin[len(vin)-4:]
}

// MaskID shortens an ID to its first 8 characters.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// SafeLog logs a message with sensitive data masked.
func SafeLog(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Print(MaskString(message))
}

// SafeDebug logs only when LOG_LEVEL=DEBUG.
func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[DEBUG] %s", MaskString(message))
}

// SafeInfo logs an informational message.
func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[INFO] %s", MaskString(message))
}

// SafeWarn logs a warning.
func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[WARN] %s", MaskString(message))
}

// SafeError logs an error.
func SafeError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[ERROR] %s", MaskString(message))
}
