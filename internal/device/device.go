// Package device summarises the User-Agent of the merchant terminal that
// submits a payment. The summary is recorded with the payment outcome.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Describe returns "Browser on OS/platform" (e.g. "Chrome on Android"),
// or "unknown terminal" for an empty User-Agent. Non-browser clients such as
// curl or POS SDKs report their product name.
func Describe(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown terminal"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if ua.Bot() || browser == "" {
		name, version := ua.Engine()
		if name == "" {
			return truncate(userAgent, 64)
		}
		return strings.TrimSpace(name + " " + version)
	}

	where := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		where = ua.Platform()
	}
	if where == "" {
		where = "unknown OS"
	}
	return browser + " on " + where
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
