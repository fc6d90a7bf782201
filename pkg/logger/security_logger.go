package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SecurityLogger keeps API credentials and endpoint paths out of log output
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger wraps the global logger
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{Logger: GetLogger()}
}

// MaskAPIEndpoint keeps the host and replaces the path with a short hash
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}
	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Host == "" {
		return "api-endpoint#" + shortHash(apiURL)
	}
	return fmt.Sprintf("%s/api#%s", parsed.Host, shortHash(apiURL))
}

// MaskCredential shows the first two characters of a secret
func (sl *SecurityLogger) MaskCredential(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return secret[:2] + "****"
	}
}

// MaskSensitiveData masks values whose keys look like credentials or endpoints
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for key, value := range data {
		str, isString := value.(string)
		lowerKey := strings.ToLower(key)
		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "password"), strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "token"), strings.Contains(lowerKey, "api_key"),
			strings.Contains(lowerKey, "login"):
			masked[key] = sl.MaskCredential(str)
		case strings.Contains(lowerKey, "url"), strings.Contains(lowerKey, "endpoint"):
			masked[key] = sl.MaskAPIEndpoint(str)
		default:
			masked[key] = value
		}
	}
	return masked
}

var embeddedURL = regexp.MustCompile(`https?://[^\s"']+`)

// SanitizeMessage masks URLs embedded in free text, e.g. transport error messages
func (sl *SecurityLogger) SanitizeMessage(msg string) string {
	return embeddedURL.ReplaceAllStringFunc(msg, sl.MaskAPIEndpoint)
}

func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.WithFields(sl.MaskSensitiveData(fields)).Info(sl.SanitizeMessage(msg))
}

func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.WithFields(sl.MaskSensitiveData(fields)).Warn(sl.SanitizeMessage(msg))
}

func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	l := sl.WithFields(sl.MaskSensitiveData(fields))
	if err != nil {
		l = l.WithField("error", sl.SanitizeMessage(err.Error()))
	}
	l.Error(sl.SanitizeMessage(msg))
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
