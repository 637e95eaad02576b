package config

import "time"

func (c mainConfig) GetReauthDelay() time.Duration {
	return durationOr(c.settings.Form.ReauthDelay, 3*time.Second)
}

func durationOr(d, defaultValue time.Duration) time.Duration {
	if d <= 0 {
		return defaultValue
	}
	return d
}
