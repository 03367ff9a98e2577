package model

type DeviceStatus string

const (
	StatusOnline     DeviceStatus = "online"
	StatusOffline    DeviceStatus = "offline"
	StatusLostMode   DeviceStatus = "lost_mode"
	StatusLowBattery DeviceStatus = "low_battery"
	StatusError      DeviceStatus = "error"
)

func (s DeviceStatus) IsValid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusLostMode, StatusLowBattery, StatusError:
		return true
	}
	return false
}
