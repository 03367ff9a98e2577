package model

// DeviceConfig is the device-tunable configuration carried in the devices
// table as a JSON column. Intervals are milliseconds; a GpsReadInterval of
// zero means geofence GPS polling is off.
type DeviceConfig struct {
	HeartbeatInterval   int     `json:"heartbeatInterval" validate:"min=5000,max=3600000"`
	GpsReadInterval     int     `json:"gpsReadInterval" validate:"min=0,max=3600000"`
	LostModeInterval    int     `json:"lostModeInterval" validate:"min=1000,max=3600000"`
	LowBatteryThreshold float64 `json:"lowBatteryThreshold" validate:"min=0,max=100"`
}

// DefaultConfig is applied on registration. The device only starts polling
// GPS for geofencing once it receives an enable_geofence_monitoring command.
func DefaultConfig() DeviceConfig {
	return DeviceConfig{
		HeartbeatInterval:   30000,
		GpsReadInterval:     0,
		LostModeInterval:    15000,
		LowBatteryThreshold: 15.0,
	}
}
