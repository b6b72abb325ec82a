package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"property-maintenance-backend/config"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       config.LogConfig
		level     zapcore.Level
		expectErr bool
	}{
		{name: "defaults", cfg: config.LogConfig{}, level: zapcore.InfoLevel},
		{name: "console debug", cfg: config.LogConfig{Format: "console", Level: "debug"}, level: zapcore.DebugLevel},
		{name: "json warn", cfg: config.LogConfig{Format: "json", Level: "warn"}, level: zapcore.WarnLevel},
		{name: "bad level", cfg: config.LogConfig{Level: "loud"}, expectErr: true},
		{name: "bad format", cfg: config.LogConfig{Format: "xml"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.cfg)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tc.level))
			if tc.level > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tc.level-1))
			}
		})
	}
}
