// Package directory is the identity source: it supplies employee
// records the policy core trusts as given. No authentication happens
// here; clearance and location consistency are the directory's concern.
package directory

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/umbrellacorp/usiop/internal/model"
)

// Role ties a position to its department, clearance, and the sites it
// may be assigned to.
type Role struct {
	Department       string
	Clearance        int
	AllowedLocations []string
}

// LocationProtocol is the site-level security posture.
type LocationProtocol struct {
	SecurityLevel    string // ALPHA, BETA, GAMMA
	Underground      bool
	EmergencyContact string
}

// Roles maps positions to their requirements. Clearance follows the
// role, never the individual.
var Roles = map[string]Role{
	"Research Scientist":    {Department: "R&D", Clearance: 3, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe", "Umbrella Asia"}},
	"Senior Research Lead":  {Department: "R&D", Clearance: 4, AllowedLocations: []string{"Raccoon City HQ"}},
	"Software Engineer":     {Department: "IT", Clearance: 2, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe", "Umbrella Asia", "Umbrella North America", "Umbrella South America"}},
	"IT Security Specialist": {Department: "IT", Clearance: 3, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe"}},
	"Operations Manager":    {Department: "Operations", Clearance: 2, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe", "Umbrella Asia", "Umbrella North America", "Umbrella South America"}},
	"HR Specialist":         {Department: "HR", Clearance: 1, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe", "Umbrella North America"}},
	"HR Director":           {Department: "HR", Clearance: 2, AllowedLocations: []string{"Raccoon City HQ"}},
	"Security Officer":      {Department: "Security", Clearance: 4, AllowedLocations: []string{"Raccoon City HQ", "Umbrella Europe"}},
	"Junior Lab Technician": {Department: "R&D", Clearance: 1, AllowedLocations: []string{"Umbrella Europe", "Umbrella Asia", "Umbrella North America", "Umbrella South America"}},
	"Facility Administrator": {Department: "Operations", Clearance: 5, AllowedLocations: []string{"Raccoon City HQ"}},
}

// Locations maps sites to their protocols. Only the HQ carries the
// underground facility.
var Locations = map[string]LocationProtocol{
	"Raccoon City HQ":       {SecurityLevel: "ALPHA", Underground: true, EmergencyContact: "ext. 4-UMBRELLA"},
	"Umbrella Europe":       {SecurityLevel: "BETA", Underground: false, EmergencyContact: "ext. EU-SECURE"},
	"Umbrella Asia":         {SecurityLevel: "BETA", Underground: false, EmergencyContact: "ext. ASIA-SEC"},
	"Umbrella North America": {SecurityLevel: "GAMMA", Underground: false, EmergencyContact: "ext. NA-OPS"},
	"Umbrella South America": {SecurityLevel: "GAMMA", Underground: false, EmergencyContact: "ext. SA-OPS"},
}

// facilityClearance is the minimum SCL that may acknowledge the
// underground facility at a site that has one.
const facilityClearance = 4

var firstNames = []string{
	"Ada", "Brian", "Carla", "Derek", "Elena", "Felix", "Grace", "Hugo",
	"Irene", "Jonas", "Karin", "Leon", "Mira", "Nolan", "Olga", "Pavel",
	"Quinn", "Rosa", "Stefan", "Tara",
}

var lastNames = []string{
	"Akers", "Birkin", "Calloway", "Drummond", "Eriksen", "Falk", "Geller",
	"Hargrove", "Ivanov", "Jensen", "Kessler", "Lindqvist", "Moreau",
	"Novak", "Oyelaran", "Petrov", "Quist", "Reyes", "Sorensen", "Tanaka",
}

// Generate produces n consistent employee identities from a seed.
// Position, department, clearance, and location always agree; facility
// access is derived, never assigned directly.
func Generate(n int, seed int64) []model.Identity {
	rng := rand.New(rand.NewSource(seed))

	positions := make([]string, 0, len(Roles))
	for p := range Roles {
		positions = append(positions, p)
	}
	sort.Strings(positions)

	out := make([]model.Identity, 0, n)
	for i := 0; i < n; i++ {
		position := positions[rng.Intn(len(positions))]
		role := Roles[position]
		location := role.AllowedLocations[rng.Intn(len(role.AllowedLocations))]
		out = append(out, build(position, role, location, rng))
	}
	return out
}

func build(position string, role Role, location string, rng *rand.Rand) model.Identity {
	proto := Locations[location]
	return model.Identity{
		EmployeeID:       uuid.NewString(),
		Name:             firstNames[rng.Intn(len(firstNames))],
		LastName:         lastNames[rng.Intn(len(lastNames))],
		Position:         position,
		Department:       role.Department,
		ClearanceLevel:   role.Clearance,
		Location:         location,
		LocationSecurity: proto.SecurityLevel,
		FacilityAccess:   proto.Underground && role.Clearance >= facilityClearance,
	}
}

// Validate checks an identity against the role and location tables.
func Validate(id model.Identity) error {
	if id.EmployeeID == "" {
		return fmt.Errorf("employee %q: empty employee_id", id.FullName())
	}
	if id.ClearanceLevel < model.MinClearance || id.ClearanceLevel > model.MaxClearance {
		return fmt.Errorf("employee %s: clearance level %d outside %d-%d", id.ShortID(), id.ClearanceLevel, model.MinClearance, model.MaxClearance)
	}

	proto, ok := Locations[id.Location]
	if !ok {
		return fmt.Errorf("employee %s: unknown location %q", id.ShortID(), id.Location)
	}
	if id.FacilityAccess && (!proto.Underground || id.ClearanceLevel < facilityClearance) {
		return fmt.Errorf("employee %s: facility access inconsistent with location %q and SCL-%d", id.ShortID(), id.Location, id.ClearanceLevel)
	}

	if role, ok := Roles[id.Position]; ok {
		if role.Clearance != id.ClearanceLevel {
			return fmt.Errorf("employee %s: position %q requires SCL-%d, has SCL-%d", id.ShortID(), id.Position, role.Clearance, id.ClearanceLevel)
		}
		allowed := false
		for _, loc := range role.AllowedLocations {
			if loc == id.Location {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("employee %s: position %q not assignable to %q", id.ShortID(), id.Position, id.Location)
		}
	}
	return nil
}

// GenerateRandom produces n identities with a clock-derived seed.
func GenerateRandom(n int) []model.Identity {
	return Generate(n, time.Now().UnixNano())
}
