package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Simulation overrides the active status of some subscriptions without
// persisting anything. The zero value is an empty simulation.
type Simulation struct {
	overrides map[string]bool
}

// Override is a single simulated status change
type Override struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

func NewSimulation(overrides ...Override) *Simulation {
	s := &Simulation{}
	for _, o := range overrides {
		s.Toggle(o.ID, o.Active)
	}
	return s
}

// Toggle sets the simulated status for id
func (s *Simulation) Toggle(id string, active bool) {
	if s.overrides == nil {
		s.overrides = make(map[string]bool)
	}
	s.overrides[id] = active
}

// Clear drops the override for id
func (s *Simulation) Clear(id string) {
	delete(s.overrides, id)
}

func (s *Simulation) Reset() {
	s.overrides = nil
}

func (s *Simulation) IsEmpty() bool {
	return s == nil || len(s.overrides) == 0
}

// Overrides returns the overrides sorted by id
func (s *Simulation) Overrides() []Override {
	if s == nil {
		return nil
	}
	out := make([]Override, 0, len(s.overrides))
	for id, active := range s.overrides {
		out = append(out, Override{ID: id, Active: active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Apply returns a copy of subs with the overrides applied. Ids that are not
// in subs are ignored and the input is never modified.
func (s *Simulation) Apply(subs []Subscription) []Subscription {
	out := Clone(subs)
	if s.IsEmpty() {
		return out
	}
	for i := range out {
		if active, ok := s.overrides[out[i].ID]; ok {
			out[i].ActiveStatus = active
		}
	}
	return out
}

// Key is a stable string form of the simulation, usable as a cache key
func (s *Simulation) Key() string {
	var b strings.Builder
	for i, o := range s.Overrides() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.ID)
		b.WriteByte(':')
		b.WriteString(strconv.FormatBool(o.Active))
	}
	return b.String()
}

// ParseSimulation parses "id:false,id2:true" (also accepting "=" as separator)
func ParseSimulation(arg string) (*Simulation, error) {
	sim := &Simulation{}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return sim, nil
	}
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.LastIndexAny(part, ":=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid simulation entry %q: expected id:true|false", part)
		}
		active, err := strconv.ParseBool(part[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid simulation entry %q: %w", part, err)
		}
		sim.Toggle(part[:idx], active)
	}
	return sim, nil
}
