package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-tracker/pkg/utils"
)

func TestDefaultConfigPassesValidation(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, utils.ValidateStruct(&cfg))
}

func TestDefaultConfigKeepsGeofencePollingOff(t *testing.T) {
	assert.Zero(t, DefaultConfig().GpsReadInterval)
}

func TestConfigValidationRejectsTightHeartbeat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 1000
	assert.Error(t, utils.ValidateStruct(&cfg))
}

func TestConfigValidationRejectsThresholdOverCent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LowBatteryThreshold = 150
	assert.Error(t, utils.ValidateStruct(&cfg))
}

func TestConfigJSONFieldNamesMatchFirmware(t *testing.T) {
	raw, err := json.Marshal(DefaultConfig())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"heartbeatInterval", "gpsReadInterval", "lostModeInterval", "lowBatteryThreshold"} {
		assert.Contains(t, decoded, key)
	}
}
