package service

import "dispatch/internal/domain"

// Reconcile projects advance bookings onto a fleet. A booking is kept when
// any vehicle, whatever its current status, could carry it; the rest are
// left out. Neither input is modified.
func Reconcile(scheduled []*domain.ScheduledRide, fleet []*domain.Vehicle) []domain.ScheduledRideView {
	views := make([]domain.ScheduledRideView, 0, len(scheduled))
	for _, sr := range scheduled {
		if sr.Status == domain.ScheduledRideFulfilled {
			continue
		}
		if !CanServe(fleet, sr.VehicleType, sr.PassengerCount) {
			continue
		}
		views = append(views, domain.ScheduledRideView{
			ScheduledRide: *sr,
			Driver:        domain.UnassignedDriver,
			Fare:          domain.FareNotAvailable,
			Status:        domain.ScheduledRidePending,
		})
	}
	return views
}
