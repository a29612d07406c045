package domain

import "time"

// Timeout returns the per-call timeout as a duration. Zero disables it.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}
