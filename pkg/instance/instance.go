package instance

import (
	"os"

	"github.com/angelmondragon/orderledger-backend/pkg/env"
)

// GetID identifies the running API process in logs. An explicit
// ORDERLEDGER_INSTANCE_ID wins, then DYNO, then the hostname.
func GetID() string {
	if id := env.First("", "ORDERLEDGER_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
