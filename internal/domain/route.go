package domain

// TrafficStatus classifies the congestion along a candidate route.
type TrafficStatus string

const (
	TrafficAllClear TrafficStatus = "All Clear"
	TrafficBusy     TrafficStatus = "Busy"
	TrafficMuchBusy TrafficStatus = "Much Busy"
)

// Factor returns the ETA multiplier for the traffic class.
func (t TrafficStatus) Factor() float64 {
	switch t {
	case TrafficBusy:
		return 1.5
	case TrafficMuchBusy:
		return 2.0
	default:
		return 1.0
	}
}

// Route is one candidate path for a trip request. Path is display geometry
// and is never interpreted by the dispatch engine.
type Route struct {
	ID             int
	Name           string
	Traffic        TrafficStatus
	Path           string
	DistanceKm     float64
	ETAMinutes     int
	VehicleType    VehicleType
	PassengerCount int
}

// QuoteBatch groups the candidate routes produced for one request.
type QuoteBatch struct {
	ID          string
	PassengerID string
	Pickup      string
	Drop        string
	Routes      []Route
}

// Route returns the route with the given id from the batch.
func (b *QuoteBatch) Route(id int) (Route, bool) {
	for _, r := range b.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}
