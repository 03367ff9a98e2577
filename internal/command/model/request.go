package model

type CreateCommandRequest struct {
	CommandType CommandType            `json:"commandType" validate:"required"`
	Payload     map[string]interface{} `json:"payload"`
}

// AckCommandRequest reports a transition from the device. An omitted status
// defaults to acknowledged.
type AckCommandRequest struct {
	Status CommandStatus `json:"status"`
}

type LostModeRequest struct {
	LostMode *bool `json:"lostMode" validate:"required"`
}
