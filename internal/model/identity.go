package model

// MinClearance and MaxClearance bound the security clearance scale.
const (
	MinClearance = 1
	MaxClearance = 5
)

// Identity is the querying employee as asserted by the directory.
// It is created at session start and never mutated afterwards; the
// directory, not this core, vouches for its contents.
type Identity struct {
	EmployeeID     string `json:"employee_id" yaml:"employee_id"`
	Name           string `json:"name" yaml:"name"`
	LastName       string `json:"lastname" yaml:"lastname"`
	Position       string `json:"position" yaml:"position"`
	Department     string `json:"department" yaml:"department"`
	ClearanceLevel int    `json:"clearance_level" yaml:"clearance_level"`
	Location       string `json:"location" yaml:"location"`

	// LocationSecurity is the facility's security tier (ALPHA/BETA/GAMMA).
	LocationSecurity string `json:"location_security_level" yaml:"location_security_level"`

	// FacilityAccess is true when the identity's location has an
	// underground facility and its clearance permits acknowledging it.
	FacilityAccess bool `json:"has_facility_access" yaml:"has_facility_access"`
}

// FullName returns the display name for transmission framing.
func (id Identity) FullName() string {
	if id.LastName == "" {
		return id.Name
	}
	return id.Name + " " + id.LastName
}

// ShortID returns the truncated employee ID used in logs and transmissions.
func (id Identity) ShortID() string {
	if len(id.EmployeeID) > 8 {
		return id.EmployeeID[:8]
	}
	return id.EmployeeID
}
