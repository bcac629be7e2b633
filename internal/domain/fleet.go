package domain

// FleetSnapshot is the persisted state of the fleet store. Vehicles keep
// their insertion order.
type FleetSnapshot struct {
	Vehicles []*Vehicle
	Rides    []*Ride
}

// Clone returns a deep copy of the snapshot.
func (s *FleetSnapshot) Clone() *FleetSnapshot {
	c := &FleetSnapshot{
		Vehicles: make([]*Vehicle, len(s.Vehicles)),
		Rides:    make([]*Ride, len(s.Rides)),
	}
	for i, v := range s.Vehicles {
		c.Vehicles[i] = v.Clone()
	}
	for i, r := range s.Rides {
		c.Rides[i] = r.Clone()
	}
	return c
}

// FleetStats summarises an owner's fleet for the dashboard.
type FleetStats struct {
	TotalVehicles  int
	ActiveRides    int
	CompletedRides int
	Maintenance    map[MaintenanceStatus]int
}

// DailyRideStats aggregates completed rides for one calendar date.
type DailyRideStats struct {
	Date  string
	Rides int
	Fare  int
}

// RideHistoryEntry is a display row mixing confirmed rides and pending
// advance bookings.
type RideHistoryEntry struct {
	ID        string
	Date      string
	Passenger string
	Driver    string
	Fare      string
	Status    string
}
