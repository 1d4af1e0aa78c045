package telemetry

// Event is a structured fact extracted from one line of printer output or
// from the link state. The concrete types below are the only implementations.
type Event interface{ isEvent() }

// TempReading is a current/target pair for one heater.
type TempReading struct {
	Current float64
	Target  float64
}

// Temperature carries heater readings from one report line. Nozzle and bed
// are always set; heatbreak and chamber only when their markers were present.
type Temperature struct {
	Nozzle       TempReading
	Bed          TempReading
	Heatbreak    TempReading
	HasHeatbreak bool
	Chamber      float64
	HasChamber   bool
}

// Progress carries print-progress fields. Each field has a presence flag
// because the printer reports them on separate lines.
type Progress struct {
	Percent     int
	HasPercent  bool
	TimeLeftMin int
	HasTimeLeft bool
	ChangeMin   int
	HasChange   bool
}

// Position is the tool position in millimeters (E is the extruder axis).
type Position struct {
	X, Y, Z, E float64
}

// Power carries heater PWM duty values (0-255), one presence flag per heater.
type Power struct {
	NozzlePWM    int
	HasNozzle    bool
	BedPWM       int
	HasBed       bool
	HeatbreakPWM int
	HasHeatbreak bool
}

// Log is one raw line of printer output, verbatim.
type Log struct {
	Text string
}

// Status reports a change of the device link state.
type Status struct {
	Connected bool
}

// FirmwareError is an error line reported by the printer firmware. Code is
// the leading integer of the error text when one is present, else zero.
type FirmwareError struct {
	Code int
	Text string
}

func (Temperature) isEvent()   {}
func (Progress) isEvent()      {}
func (Position) isEvent()      {}
func (Power) isEvent()         {}
func (Log) isEvent()           {}
func (Status) isEvent()        {}
func (FirmwareError) isEvent() {}
