package refreshtoken

import (
	"github.com/mileusna/useragent"
)

// ParseDeviceInfo derives audit metadata from a User-Agent header. The result
// is stored alongside the token record for forensics and session listings; it
// is never consulted for authorization decisions.
func ParseDeviceInfo(userAgentString string) map[string]any {
	if userAgentString == "" {
		return map[string]any{
			"browser":     "Unknown Browser",
			"os":          "Unknown OS",
			"device_type": "Unknown",
		}
	}

	ua := useragent.Parse(userAgentString)

	deviceType := "Desktop"
	if ua.Mobile {
		deviceType = "Mobile"
	} else if ua.Tablet {
		deviceType = "Tablet"
	} else if ua.Bot {
		deviceType = "Bot"
	}

	browser := "Unknown Browser"
	if ua.Name != "" {
		browser = ua.Name
		if ua.Version != "" {
			browser = ua.Name + " " + ua.Version
		}
	}

	os := "Unknown OS"
	if ua.OS != "" {
		os = ua.OS
		if ua.OSVersion != "" {
			os = ua.OS + " " + ua.OSVersion
		}
	}

	return map[string]any{
		"browser":     browser,
		"os":          os,
		"device_type": deviceType,
	}
}
