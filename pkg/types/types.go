package types

// Message type tags carried in the "type" field of every wire message.
const (
	MessageTemperature = "temperature"
	MessageProgress    = "progress"
	MessagePosition    = "position"
	MessagePower       = "power"
	MessageLog         = "log"
	MessageStatus      = "status"
	MessageError       = "error"
)

// MaxMessageBytes caps the serialized size of any single wire message.
// Builders truncate free-text payloads (log lines, error text) to fit.
const MaxMessageBytes = 512

// Message is one wire-ready unit queued for a subscriber: the type tag and
// the complete serialized JSON payload (the payload includes the tag).
// Immutable once constructed; Payload is never mutated after creation.
type Message struct {
	Type    string
	Payload []byte
}

// TempPair is a current/target temperature reading in degrees Celsius.
type TempPair struct {
	// Current temperature.
	// example: 210.4
	Current float64 `json:"cur" example:"210.4"`
	// Target temperature; 0 when the heater is off.
	// example: 210
	Target float64 `json:"target" example:"210"`
}

// ChamberReading is a chamber temperature; the firmware reports no target.
type ChamberReading struct {
	// Current chamber temperature.
	// example: 31.2
	Current float64 `json:"cur" example:"31.2"`
}

// Temperatures groups every heater/sensor reading the printer reports.
type Temperatures struct {
	Nozzle    TempPair       `json:"nozzle"`
	Bed       TempPair       `json:"bed"`
	Heatbreak TempPair       `json:"heatbreak"`
	Chamber   ChamberReading `json:"chamber"`
}

// HeaterPower groups the PWM duty (0-255) applied to each heater.
type HeaterPower struct {
	// example: 127
	NozzlePWM int `json:"nozzle_pwm" example:"127"`
	// example: 64
	BedPWM int `json:"bed_pwm" example:"64"`
	// example: 0
	HeatbreakPWM int `json:"heatbreak_pwm" example:"0"`
}

// PrintProgress groups job progress as reported by the firmware.
type PrintProgress struct {
	// Percent complete, 0-100.
	// example: 42
	Percent int `json:"percent" example:"42"`
	// Estimated minutes until the print finishes.
	// example: 83
	TimeLeftMin int `json:"time_left_min" example:"83"`
	// Minutes until the next filament/color change, as last reported.
	// example: 45
	ChangeMin int `json:"change_min" example:"45"`
}

// ToolPosition is the last reported toolhead position in millimeters plus
// the extruder axis.
type ToolPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	E float64 `json:"e"`
}

// PrinterState is the live snapshot of everything known about the printer.
// Every field holds the most recently observed value; fields absent from an
// incoming report keep their prior value, so readings stay last-known-good
// across disconnects until the device reports again.
type PrinterState struct {
	// Whether the device link is currently up.
	// example: true
	Connected bool          `json:"connected" example:"true"`
	Temps     Temperatures  `json:"temperatures"`
	Power     HeaterPower   `json:"power"`
	Progress  PrintProgress `json:"progress"`
	Position  ToolPosition  `json:"position"`
}

// Per-category wire messages. Each embeds its state group so the JSON is the
// flat {"type": ..., fields...} shape subscribers see; whole-category state
// is carried every time, never a diff.

type TemperatureMessage struct {
	Type string `json:"type"`
	Temperatures
}

type ProgressMessage struct {
	Type string `json:"type"`
	PrintProgress
}

type PositionMessage struct {
	Type string `json:"type"`
	ToolPosition
}

type PowerMessage struct {
	Type string `json:"type"`
	HeaterPower
}

// LogMessage carries one raw console line, verbatim.
type LogMessage struct {
	Type string `json:"type"`
	// example: T:210.0/210.0 B:60.0/60.0
	Text string `json:"text" example:"T:210.0/210.0 B:60.0/60.0"`
}

// StatusMessage reports device connectivity changes.
type StatusMessage struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// ErrorMessage carries a firmware-reported error line.
type ErrorMessage struct {
	Type string `json:"type"`
	// Numeric error code when the firmware printed one, else 0.
	// example: 12205
	Code int `json:"code" example:"12205"`
	// example: Heater failure
	Text string `json:"text" example:"Heater failure"`
}
