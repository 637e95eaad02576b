package config

import "time"

func (c mainConfig) GetMaxSessionAge() time.Duration {
	return durationOr(c.settings.Security.MaxSessionAge, 12*time.Hour)
}

func (c mainConfig) GetSessionSweepInterval() time.Duration {
	return durationOr(c.settings.Security.SessionSweepInterval, 10*time.Minute)
}

// GetStateSecret returns the HMAC secret for the OAuth state parameter. Empty
// means a random secret per process.
func (c mainConfig) GetStateSecret() string {
	return c.settings.Security.StateSecret
}

func (c mainConfig) GetStateTTL() time.Duration {
	return durationOr(c.settings.Security.StateTTL, 10*time.Minute)
}
