package catalog

import "strings"

type PortKind string

const (
	KindPower PortKind = "power"
	KindBus   PortKind = "bus"
	KindIO    PortKind = "io"
)

func (k PortKind) IsValid() bool {
	switch k {
	case KindPower, KindBus, KindIO:
		return true
	}
	return false
}

type Direction string

const (
	DirectionIn            Direction = "in"
	DirectionOut           Direction = "out"
	DirectionBidirectional Direction = "bidirectional"
)

func (d Direction) IsValid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionBidirectional:
		return true
	}
	return false
}

type BusType string

const (
	BusI2C  BusType = "i2c"
	BusSPI  BusType = "spi"
	BusUART BusType = "uart"
	BusUSB  BusType = "usb"
	BusGPIO BusType = "gpio"
)

func (b BusType) IsValid() bool {
	switch b {
	case BusI2C, BusSPI, BusUART, BusUSB, BusGPIO:
		return true
	}
	return false
}

type IOType string

const (
	IOGPIO IOType = "gpio"
	IOADC  IOType = "adc"
	IOPWM  IOType = "pwm"
	IOInt  IOType = "int"
)

func (t IOType) IsValid() bool {
	switch t {
	case IOGPIO, IOADC, IOPWM, IOInt:
		return true
	}
	return false
}

type Category string

const (
	CategoryPower     Category = "power"
	CategoryMCU       Category = "mcu"
	CategorySensor    Category = "sensor"
	CategoryInterface Category = "interface"
	CategoryGlue      Category = "glue"
	CategoryOther     Category = "other"
)

// ParseCategory maps free text onto the closed category set, defaulting to other.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryPower, CategoryMCU, CategorySensor, CategoryInterface, CategoryGlue:
		return c
	}
	return CategoryOther
}

type PowerSpec struct {
	Voltage    float64 `json:"voltage" yaml:"voltage"`
	Rail       string  `json:"rail,omitempty" yaml:"rail,omitempty"`
	MaxCurrent float64 `json:"max_current,omitempty" yaml:"max_current,omitempty"`
}

type BusSpec struct {
	Type BusType `json:"type" yaml:"type"`
}

type IOSpec struct {
	Type        IOType  `json:"type" yaml:"type"`
	SignalLevel float64 `json:"signal_level,omitempty" yaml:"signal_level,omitempty"`
}

// Port is a typed connection point on a module. Only the spec block that
// matches Kind is meaningful; use the accessors rather than the fields.
type Port struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Kind      PortKind   `json:"kind" yaml:"kind"`
	Direction Direction  `json:"direction" yaml:"direction"`
	Power     *PowerSpec `json:"power,omitempty" yaml:"power,omitempty"`
	Bus       *BusSpec   `json:"bus,omitempty" yaml:"bus,omitempty"`
	IO        *IOSpec    `json:"io,omitempty" yaml:"io,omitempty"`
}

// Voltage reports the rail voltage of a power port.
func (p Port) Voltage() (float64, bool) {
	if p.Kind != KindPower || p.Power == nil {
		return 0, false
	}
	return p.Power.Voltage, true
}

func (p Port) BusType() (BusType, bool) {
	if p.Kind != KindBus || p.Bus == nil {
		return "", false
	}
	return p.Bus.Type, true
}

func (p Port) IOType() (IOType, bool) {
	if p.Kind != KindIO || p.IO == nil {
		return "", false
	}
	return p.IO.Type, true
}

type Module struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
	Ports    []Port   `json:"ports" yaml:"ports"`
}

// Port looks up a port by id on the module.
func (m Module) Port(id string) (Port, bool) {
	for _, p := range m.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}
