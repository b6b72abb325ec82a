package mw

import (
	"time"

	"property-maintenance-backend/config"
)

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:       "pin",
		SigningKey: "test-signing-key",
		SessionTTL: time.Hour,
		PINs:       []config.PINEntry{{PIN: "1234", UserID: "owner", DisplayName: "Owner"}},
	}
}
