package events

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	devicemodel "gps-tracker/internal/device/model"
	geomodel "gps-tracker/internal/geofence/model"
	"gps-tracker/internal/logger"
	"gps-tracker/pkg/mqtt"
)

// Publisher fans device lifecycle events out over MQTT. Topics are
// <prefix>/devices/<deviceId>/status and <prefix>/devices/<deviceId>/alerts.
// Publish failures are logged and dropped; dashboards poll the database
// anyway, so the broker is a convenience channel, not a source of truth.
type Publisher struct {
	client      *mqtt.Client
	topicPrefix string
}

func NewPublisher(client *mqtt.Client, topicPrefix string) *Publisher {
	if topicPrefix == "" {
		topicPrefix = "gps-tracker"
	}
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
	}
}

type statusEvent struct {
	DeviceID  string `json:"deviceId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (p *Publisher) PublishDeviceStatus(deviceID string, status devicemodel.DeviceStatus) {
	topic := fmt.Sprintf("%s/devices/%s/status", p.topicPrefix, deviceID)
	p.publish(topic, statusEvent{
		DeviceID:  deviceID,
		Status:    string(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type alertEvent struct {
	AlertID      string  `json:"alertId"`
	GeofenceID   string  `json:"geofenceId"`
	GeofenceName string  `json:"geofenceName"`
	DeviceID     string  `json:"deviceId"`
	AlertType    string  `json:"alertType"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	TriggeredAt  string  `json:"triggeredAt"`
}

func (p *Publisher) PublishGeofenceAlert(alert *geomodel.Alert, geofenceName string) {
	topic := fmt.Sprintf("%s/devices/%s/alerts", p.topicPrefix, alert.DeviceID.String())
	p.publish(topic, alertEvent{
		AlertID:      alert.ID.String(),
		GeofenceID:   alert.GeofenceID.String(),
		GeofenceName: geofenceName,
		DeviceID:     alert.DeviceID.String(),
		AlertType:    string(alert.AlertType),
		Latitude:     alert.Latitude,
		Longitude:    alert.Longitude,
		TriggeredAt:  alert.TriggeredAt.UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) publish(topic string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}

	if err := p.client.Publish(topic, 1, false, payload); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
