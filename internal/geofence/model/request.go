package model

type CreateGeofenceRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	CenterLatitude  float64 `json:"centerLatitude" validate:"min=-90,max=90"`
	CenterLongitude float64 `json:"centerLongitude" validate:"min=-180,max=180"`
	Radius          float64 `json:"radius" validate:"required,gt=0,max=100000"`
	AlertOnEnter    *bool   `json:"alertOnEnter"`
	AlertOnExit     *bool   `json:"alertOnExit"`
}

type UpdateGeofenceRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
	Radius       *float64 `json:"radius" validate:"omitempty,gt=0,max=100000"`
	IsActive     *bool    `json:"isActive"`
	AlertOnEnter *bool    `json:"alertOnEnter"`
	AlertOnExit  *bool    `json:"alertOnExit"`
}
