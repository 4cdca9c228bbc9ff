package rum

import (
	"strings"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/mssola/user_agent"
)

// Device types
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// ParseDeviceInfo completes the client provided device info with the values parsed out of its user agent.
// Values already set by the client are kept.
func ParseDeviceInfo(info common.DeviceInfo) common.DeviceInfo {
	if len(info.UserAgent) == 0 {
		if len(info.Type) == 0 {
			info.Type = DeviceUnknown
		}
		return info
	}

	ua := user_agent.New(info.UserAgent)
	browser, version := ua.Browser()

	if len(info.Type) == 0 {
		info.Type = deviceType(ua, info.UserAgent)
	}
	if len(info.OS) == 0 {
		info.OS = ua.OS()
	}
	if len(info.Browser) == 0 {
		info.Browser = browser
	}
	if len(info.BrowserVersion) == 0 {
		info.BrowserVersion = version
	}
	if len(info.Platform) == 0 {
		info.Platform = ua.Platform()
	}

	return info
}

func deviceType(ua *user_agent.UserAgent, raw string) string {
	switch {
	case ua.Bot():
		return DeviceBot
	case strings.Contains(raw, "iPad") || strings.Contains(raw, "Tablet"):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
