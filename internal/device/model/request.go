package model

type RegisterDeviceRequest struct {
	DeviceID        string  `json:"deviceId" validate:"required,min=5,max=100"`
	DeviceName      *string `json:"deviceName" validate:"omitempty,min=2,max=255"`
	DeviceType      string  `json:"deviceType" validate:"omitempty,max=50"`
	FirmwareVersion *string `json:"firmwareVersion" validate:"omitempty,max=50"`
	HardwareVersion *string `json:"hardwareVersion" validate:"omitempty,max=50"`
}

type UpdateDeviceRequest struct {
	DeviceName      *string `json:"deviceName" validate:"omitempty,min=2,max=255"`
	FirmwareVersion *string `json:"firmwareVersion" validate:"omitempty,max=50"`
	HardwareVersion *string `json:"hardwareVersion" validate:"omitempty,max=50"`
}
