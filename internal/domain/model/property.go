package model

// Property is the slice of the property record the lifecycle engine needs:
// coordinates for geofence and evidence-location checks. Property search and
// geocoding live outside this core.
type Property struct {
	ID             string   `json:"id"                  db:"id"`
	OrganizationID string   `json:"organization_id"     db:"organization_id"`
	Address        string   `json:"address"             db:"address"`
	Latitude       *float64 `json:"latitude,omitempty"  db:"latitude"`
	Longitude      *float64 `json:"longitude,omitempty" db:"longitude"`
}

// HasCoordinates reports whether the property has been geocoded.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
