// Package catalog holds the immutable registry of module definitions and
// their typed ports that topologies are validated against.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// I2CPullupModuleID is the reserved module whose presence satisfies the
// i2c pull-up recommendation.
const I2CPullupModuleID = "glue_i2c_pullup"

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is built once and never mutated. All accessors return copies.
type Catalog struct {
	modules map[string]Module
	order   []string
}

func New(modules []Module) (*Catalog, error) {
	c := &Catalog{modules: make(map[string]Module, len(modules))}
	for i, m := range modules {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("%w: module %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.modules[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate module id %q", ErrInvalidCatalog, m.ID)
		}
		if m.Category == "" {
			m.Category = CategoryOther
		}
		ports := make([]Port, 0, len(m.Ports))
		seen := map[string]struct{}{}
		for _, p := range m.Ports {
			if err := checkPort(p); err != nil {
				return nil, fmt.Errorf("%w: module %q: %v", ErrInvalidCatalog, m.ID, err)
			}
			if _, dup := seen[p.ID]; dup {
				return nil, fmt.Errorf("%w: module %q: duplicate port id %q", ErrInvalidCatalog, m.ID, p.ID)
			}
			seen[p.ID] = struct{}{}
			ports = append(ports, clonePort(p))
		}
		m.Ports = ports
		c.modules[m.ID] = m
		c.order = append(c.order, m.ID)
	}
	return c, nil
}

// MustNew is New for static tables known to be well formed.
func MustNew(modules []Module) *Catalog {
	c, err := New(modules)
	if err != nil {
		panic(err)
	}
	return c
}

func checkPort(p Port) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("port without id")
	}
	if !p.Direction.IsValid() {
		return fmt.Errorf("port %q: invalid direction %q", p.ID, p.Direction)
	}
	switch p.Kind {
	case KindPower:
		if p.Power == nil {
			return fmt.Errorf("port %q: power port needs a voltage", p.ID)
		}
	case KindBus:
		if p.Bus == nil || !p.Bus.Type.IsValid() {
			return fmt.Errorf("port %q: bus port needs a bus type", p.ID)
		}
	case KindIO:
		if p.IO == nil || !p.IO.Type.IsValid() {
			return fmt.Errorf("port %q: io port needs an io type", p.ID)
		}
	default:
		return fmt.Errorf("port %q: invalid kind %q", p.ID, p.Kind)
	}
	return nil
}

func clonePort(p Port) Port {
	out := Port{ID: p.ID, Name: p.Name, Kind: p.Kind, Direction: p.Direction}
	switch p.Kind {
	case KindPower:
		spec := *p.Power
		out.Power = &spec
	case KindBus:
		spec := *p.Bus
		out.Bus = &spec
	case KindIO:
		spec := *p.IO
		out.IO = &spec
	}
	return out
}

func cloneModule(m Module) Module {
	out := m
	out.Ports = make([]Port, len(m.Ports))
	for i, p := range m.Ports {
		out.Ports[i] = clonePort(p)
	}
	return out
}

func (c *Catalog) Module(id string) (Module, bool) {
	if c == nil {
		return Module{}, false
	}
	m, ok := c.modules[id]
	if !ok {
		return Module{}, false
	}
	return cloneModule(m), true
}

// Port resolves a port on a module; it never panics on unknown ids.
func (c *Catalog) Port(moduleID, portID string) (Port, bool) {
	if c == nil {
		return Port{}, false
	}
	m, ok := c.modules[moduleID]
	if !ok {
		return Port{}, false
	}
	p, ok := m.Port(portID)
	if !ok {
		return Port{}, false
	}
	return clonePort(p), true
}

// Modules returns the catalog in definition order.
func (c *Catalog) Modules() []Module {
	if c == nil {
		return nil
	}
	out := make([]Module, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneModule(c.modules[id]))
	}
	return out
}

func (c *Catalog) ByCategory(cat Category) []Module {
	var out []Module
	for _, m := range c.Modules() {
		if m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Merge returns a new catalog where modules in overrides replace or extend
// the receiver's modules. Neither input is modified.
func (c *Catalog) Merge(overrides []Module) (*Catalog, error) {
	byID := map[string]Module{}
	var order []string
	for _, m := range c.Modules() {
		byID[m.ID] = m
		order = append(order, m.ID)
	}
	for _, m := range overrides {
		if _, ok := byID[m.ID]; !ok {
			order = append(order, m.ID)
		}
		byID[m.ID] = m
	}
	merged := make([]Module, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return New(merged)
}

// IDs returns the sorted module ids.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}
