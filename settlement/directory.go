package settlement

import (
	"sort"
	"sync"

	"github.com/warp/disposition-engine/disposition"
)

// =============================================================================
// DIRECTORY - Personnel number lookup
// =============================================================================

// Directory resolves personnel numbers to employees.
type Directory interface {
	Lookup(personnelNo string) (disposition.Employee, bool)
}

// MemoryDirectory is an in-memory Directory.
// Safe for concurrent reads once populated.
type MemoryDirectory struct {
	mu        sync.RWMutex
	employees map[string]disposition.Employee
	maxID     int
}

func NewMemoryDirectory(employees ...disposition.Employee) *MemoryDirectory {
	d := &MemoryDirectory{employees: make(map[string]disposition.Employee, len(employees))}
	for _, e := range employees {
		d.put(e)
	}
	return d
}

// put stores e. Callers hold mu or own d exclusively.
func (d *MemoryDirectory) put(e disposition.Employee) {
	d.employees[e.PersonnelNo] = e
	if e.ID > d.maxID {
		d.maxID = e.ID
	}
}

// Add registers an employee. A duplicate personnel number replaces the
// earlier entry.
func (d *MemoryDirectory) Add(e disposition.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.put(e)
}

// Upsert stores e under its personnel number and assigns the ID in the same
// critical section: a replaced entry keeps its ID, a new one gets the next
// free ID. It returns the stored entry and whether it was newly created.
func (d *MemoryDirectory) Upsert(e disposition.Employee) (disposition.Employee, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, ok := d.employees[e.PersonnelNo]
	if ok {
		e.ID = existing.ID
	} else {
		e.ID = d.maxID + 1
	}
	d.put(e)
	return e, !ok
}

func (d *MemoryDirectory) Lookup(personnelNo string) (disposition.Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[personnelNo]
	return e, ok
}

func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.employees)
}

// Employees returns all entries ordered by personnel number.
func (d *MemoryDirectory) Employees() []disposition.Employee {
	d.mu.RLock()
	out := make([]disposition.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, e)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PersonnelNo < out[j].PersonnelNo })
	return out
}
