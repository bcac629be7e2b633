package service

import "dispatch/internal/domain"

// FindIdleVehicle returns the first vehicle in fleet order that is idle, of
// the requested type, and seats at least passengers. It returns nil when
// none qualifies. First eligible wins; there is no best-fit ranking.
func FindIdleVehicle(fleet []*domain.Vehicle, vehicleType domain.VehicleType, passengers int) *domain.Vehicle {
	for _, v := range fleet {
		if v.Status != domain.VehicleStatusIdle {
			continue
		}
		if v.CanCarry(vehicleType, passengers) {
			return v
		}
	}
	return nil
}

// HasIdleMatch reports whether FindIdleVehicle would succeed. It reserves nothing.
func HasIdleMatch(fleet []*domain.Vehicle, vehicleType domain.VehicleType, passengers int) bool {
	return FindIdleVehicle(fleet, vehicleType, passengers) != nil
}

// CanServe reports whether any vehicle, in any status, could carry the request.
func CanServe(fleet []*domain.Vehicle, vehicleType domain.VehicleType, passengers int) bool {
	for _, v := range fleet {
		if v.CanCarry(vehicleType, passengers) {
			return true
		}
	}
	return false
}
