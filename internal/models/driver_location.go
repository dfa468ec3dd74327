package models

// DriverLocation represents a GPS location update from a driver
type DriverLocation struct {
	DriverID    string   `json:"driver_id" db:"driver_id"`
	Latitude    float64  `json:"latitude" db:"latitude"`
	Longitude   float64  `json:"longitude" db:"longitude"`
	Heading     *float64 `json:"heading,omitempty" db:"heading"`   // Direction of travel (0-360 degrees)
	Speed       *float64 `json:"speed,omitempty" db:"speed"`       // Speed in m/s
	Accuracy    *float64 `json:"accuracy,omitempty" db:"accuracy"` // GPS accuracy in meters
	EntryID     *string  `json:"entry_id,omitempty" db:"entry_id"` // Pickup the driver is en route to
	Timestamp   int64    `json:"timestamp" db:"timestamp"`         // Client-side timestamp
	IsConnected bool     `json:"is_connected" db:"is_connected"`
	UpdatedAt   int64    `json:"updated_at" db:"updated_at"` // Server-side timestamp
}

// ActiveDriver is one row of the admin fleet view: a driver plus their
// last known position and the pickup they are currently assigned to.
type ActiveDriver struct {
	DriverID    string   `json:"driver_id" db:"driver_id"`
	Name        string   `json:"name" db:"name"`
	Email       string   `json:"email" db:"email"`
	Latitude    *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64 `json:"longitude,omitempty" db:"longitude"`
	EntryID     *string  `json:"entry_id,omitempty" db:"entry_id"`
	IsConnected bool     `json:"is_connected" db:"is_connected"`
	UpdatedAt   *int64   `json:"updated_at,omitempty" db:"updated_at"`
}
