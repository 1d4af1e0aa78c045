// Package state owns the live printer snapshot: a single aggregate mutated
// by applying parsed telemetry events and copied out for anyone building
// outbound messages.
package state

import (
	"sync"

	"printerd/internal/telemetry"
	"printerd/pkg/types"
)

// Tracker guards the snapshot. One producer applies events; any number of
// readers take copies. Merge policy is partial update: an event writes only
// the fields it carries, everything else keeps its last-known value. A
// disconnect does not clear readings; they stay deliberately stale until the
// device reports again.
type Tracker struct {
	mu sync.RWMutex
	st types.PrinterState
}

// New returns a zero-valued tracker (disconnected, all readings zero).
func New() *Tracker {
	return &Tracker{}
}

// Apply merges one telemetry event into the snapshot. Log and firmware
// error events carry no state and are ignored here.
func (t *Tracker) Apply(ev telemetry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e := ev.(type) {
	case telemetry.Temperature:
		t.st.Temps.Nozzle = types.TempPair{Current: e.Nozzle.Current, Target: e.Nozzle.Target}
		t.st.Temps.Bed = types.TempPair{Current: e.Bed.Current, Target: e.Bed.Target}
		if e.HasHeatbreak {
			t.st.Temps.Heatbreak = types.TempPair{Current: e.Heatbreak.Current, Target: e.Heatbreak.Target}
		}
		if e.HasChamber {
			t.st.Temps.Chamber.Current = e.Chamber
		}
	case telemetry.Power:
		if e.HasNozzle {
			t.st.Power.NozzlePWM = e.NozzlePWM
		}
		if e.HasBed {
			t.st.Power.BedPWM = e.BedPWM
		}
		if e.HasHeatbreak {
			t.st.Power.HeatbreakPWM = e.HeatbreakPWM
		}
	case telemetry.Progress:
		if e.HasPercent {
			t.st.Progress.Percent = e.Percent
		}
		if e.HasTimeLeft {
			t.st.Progress.TimeLeftMin = e.TimeLeftMin
		}
		if e.HasChange {
			t.st.Progress.ChangeMin = e.ChangeMin
		}
	case telemetry.Position:
		t.st.Position = types.ToolPosition{X: e.X, Y: e.Y, Z: e.Z, E: e.E}
	case telemetry.Status:
		t.st.Connected = e.Connected
	}
}

// Snapshot returns a consistent copy of the current state.
func (t *Tracker) Snapshot() types.PrinterState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st
}

// Connected reports whether the device link is currently up.
func (t *Tracker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.Connected
}

// Reset clears the snapshot wholesale. Only explicit re-initialization uses
// this; disconnects go through Apply with a Status event instead.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.st = types.PrinterState{}
	t.mu.Unlock()
}
