package directory

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/umbrellacorp/usiop/internal/model"
)

// rosterFile is the YAML shape of a roster on disk.
type rosterFile struct {
	Employees []model.Identity `yaml:"employees"`
}

// Roster is a loaded employee directory. Lookups are by employee ID.
// Replace swaps the whole roster atomically, which is how the watcher
// applies a reloaded file.
type Roster struct {
	mu   sync.RWMutex
	byID map[string]model.Identity
}

// NewRoster builds a roster from validated identities.
func NewRoster(ids []model.Identity) (*Roster, error) {
	byID := make(map[string]model.Identity, len(ids))
	for _, id := range ids {
		if err := Validate(id); err != nil {
			return nil, err
		}
		if _, dup := byID[id.EmployeeID]; dup {
			return nil, fmt.Errorf("duplicate employee_id %s", id.EmployeeID)
		}
		byID[id.EmployeeID] = id
	}
	return &Roster{byID: byID}, nil
}

// LoadRoster reads a roster YAML file and validates every record.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	if len(f.Employees) == 0 {
		return nil, fmt.Errorf("roster: %s contains no employees", path)
	}

	return NewRoster(f.Employees)
}

// Lookup returns the identity for an employee ID.
func (r *Roster) Lookup(employeeID string) (model.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byID[employeeID]
	return id, ok
}

// All returns every identity in the roster, unordered.
func (r *Roster) All() []model.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Identity, 0, len(r.byID))
	for _, id := range r.byID {
		out = append(out, id)
	}
	return out
}

// Len returns the roster size.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Replace swaps in the contents of another roster.
func (r *Roster) Replace(other *Roster) {
	other.mu.RLock()
	byID := make(map[string]model.Identity, len(other.byID))
	for k, v := range other.byID {
		byID[k] = v
	}
	other.mu.RUnlock()

	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
}

// WriteRoster marshals identities to a roster YAML file.
func WriteRoster(path string, ids []model.Identity) error {
	data, err := yaml.Marshal(rosterFile{Employees: ids})
	if err != nil {
		return fmt.Errorf("roster: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
