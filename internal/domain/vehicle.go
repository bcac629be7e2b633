package domain

// VehicleType is the service class a vehicle provides.
type VehicleType string

const (
	VehicleTypeNormal    VehicleType = "Normal"
	VehicleTypeEmergency VehicleType = "Emergency"
)

// Valid reports whether t is a known vehicle type.
func (t VehicleType) Valid() bool {
	return t == VehicleTypeNormal || t == VehicleTypeEmergency
}

// VehicleStatus represents the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusIdle   VehicleStatus = "Idle"
	VehicleStatusOnRide VehicleStatus = "OnRide"
)

// MaintenanceStatus represents the service condition reported by the owner.
type MaintenanceStatus string

const (
	MaintenanceHealthy  MaintenanceStatus = "Healthy"
	MaintenanceDue      MaintenanceStatus = "Due"
	MaintenanceCritical MaintenanceStatus = "Critical"
)

// Valid reports whether m is a known maintenance status.
func (m MaintenanceStatus) Valid() bool {
	switch m {
	case MaintenanceHealthy, MaintenanceDue, MaintenanceCritical:
		return true
	}
	return false
}

// Vehicle represents a fleet vehicle and its assigned driver.
type Vehicle struct {
	ID                string
	Name              string
	DriverName        string
	Location          string
	Type              VehicleType
	Capacity          int
	MaintenanceStatus MaintenanceStatus
	Status            VehicleStatus
	OwnerID           string // Fleet owner email
}

// Clone returns a copy of the vehicle.
func (v *Vehicle) Clone() *Vehicle {
	c := *v
	return &c
}

// CanCarry reports whether the vehicle serves the given type and party size,
// regardless of its current status.
func (v *Vehicle) CanCarry(t VehicleType, passengers int) bool {
	return v.Type == t && v.Capacity >= passengers
}
