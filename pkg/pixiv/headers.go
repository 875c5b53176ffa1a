package pixiv

import (
	"fmt"
	"strings"
	"time"
)

// SynthesizeUserAgent builds a plausible desktop Chrome user agent when the
// operator did not configure one. The version numbers drift slowly with
// wall-clock time so long-lived installs do not advertise a stale browser.
func SynthesizeUserAgent(now time.Time) string {
	dt := uint64(now.UnixMilli()) / 1000
	major := dt%2 + 4
	webkit := dt / 2 % 64
	chrome := dt/128%5 + 132
	return fmt.Sprintf(
		"Mozilla/%d.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.%d (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.%d",
		major, webkit, chrome, webkit,
	)
}

// BrowserHeaders derives the full browser-profile header set from a user
// agent string. The platform rejects requests whose client-hint headers
// disagree with the user agent, so the sec-ch-ua family is reconstructed
// from it.
func BrowserHeaders(userAgent string) map[string]string {
	platform := `"Unknown"`
	switch {
	case strings.Contains(userAgent, "Windows") || strings.Contains(userAgent, "Win64"):
		platform = `"Windows"`
	case strings.Contains(userAgent, "Macintosh") || strings.Contains(userAgent, "Mac OS X"):
		platform = `"macOS"`
	case strings.Contains(userAgent, "Linux") || strings.Contains(userAgent, "X11"):
		platform = `"Linux"`
	}

	mobile := "?0"
	if strings.Contains(userAgent, "Mobile") {
		mobile = "?1"
	}

	brand := "Unknown"
	switch {
	case strings.Contains(userAgent, "Edg/"):
		brand = "Edg"
	case strings.Contains(userAgent, "Chrome/"):
		brand = "Chromium"
	case strings.Contains(userAgent, "Firefox/"):
		brand = "Firefox"
	case strings.Contains(userAgent, "Safari/") && !strings.Contains(userAgent, "Chrome/"):
		brand = "Safari"
	}

	version := majorVersion(userAgent, brand)

	var brandName string
	switch brand {
	case "Edg":
		brandName = "Microsoft Edge"
	case "Chromium":
		brandName = "Google Chrome"
	case "Firefox":
		brandName = "Firefox"
	case "Safari":
		brandName = "Safari"
	default:
		brandName = brand
	}

	secChUA := fmt.Sprintf(`"Chromium";v="%s",%q;v="%s", "Not_A Brand";v="99"`, version, brandName, version)

	return map[string]string{
		"Origin":             "https://www.pixiv.net/",
		"Referer":            "https://www.pixiv.net/",
		"User-Agent":         userAgent,
		"DNT":                "1",
		"Accept-Language":    "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept":             "application/json, text/plain, */*",
		"sec-ch-ua":          secChUA,
		"sec-ch-ua-platform": platform,
		"sec-ch-ua-mobile":   mobile,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-site",
	}
}

// majorVersion extracts the major version of the detected browser brand
// from the user agent, falling back to 12 when absent.
func majorVersion(userAgent, brand string) string {
	part := "Unknown/12"
	for _, field := range strings.Fields(userAgent) {
		if strings.HasPrefix(field, brand) {
			part = field
			break
		}
	}

	pieces := strings.SplitN(part, "/", 2)
	version := "12"
	if len(pieces) == 2 && pieces[1] != "" {
		version = pieces[1]
	}

	if dot := strings.IndexByte(version, '.'); dot >= 0 {
		version = version[:dot]
	}
	if version == "" {
		version = "12"
	}
	return version
}
