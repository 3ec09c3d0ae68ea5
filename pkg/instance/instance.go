package instance

import "github.com/angelmondragon/olist-insights/pkg/env"

// GetID returns the process instance identifier used in startup logs.
func GetID() string {
	return env.Get("DYNO", env.Get("HOSTNAME", "local"))
}
