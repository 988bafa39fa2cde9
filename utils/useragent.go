package utils

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// DeviceClass buckets a User-Agent into a small, bounded label set suitable
// for metrics: bot, mobile, tablet, desktop or unknown.
func DeviceClass(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	parsed := ua.Parse(userAgent)
	switch {
	case parsed.Bot:
		return "bot"
	case parsed.Mobile:
		return "mobile"
	case parsed.Tablet:
		return "tablet"
	case parsed.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// ClientLabel is a short "Browser on OS" description of the client.
func ClientLabel(userAgent string) string {
	parsed := ua.Parse(userAgent)
	browser := strings.TrimSpace(parsed.Name)
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := strings.TrimSpace(parsed.OS)
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
