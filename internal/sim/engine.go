// Package sim implements a toy printer for development and end-to-end
// tests: an engine that models heaters, motion and job progress, and a TCP
// server that speaks the console dialect the daemon parses. It acks every
// command with "ok" the way real firmware does.
package sim

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// ambient is the idle temperature everything cools toward.
	ambient = 23.0

	// DefaultReportInterval is the telemetry cadence before M155 changes it.
	DefaultReportInterval = time.Second
)

// Engine models one printer: heater temperatures chase their targets, PWM
// follows the heating gap, and an optional print job counts down. All
// methods are safe for concurrent use; one engine is shared by every
// connection the server accepts.
type Engine struct {
	mu sync.Mutex

	nozzle, nozzleTarget float64
	bed, bedTarget       float64
	heatbreak            float64
	chamber              float64

	x, y, z, e float64

	printing    bool
	totalMin    int
	timeLeftMin int
	changeMin   int

	progressOn  bool
	reportEvery time.Duration
}

// NewEngine returns an idle printer at ambient temperature.
func NewEngine() *Engine {
	return &Engine{
		nozzle:      ambient,
		bed:         ambient,
		heatbreak:   ambient + 1,
		chamber:     ambient + 3,
		changeMin:   -1,
		reportEvery: DefaultReportInterval,
	}
}

// Command applies one console command and returns the response lines,
// always ending with "ok". Unknown commands are acked and otherwise
// ignored, matching firmware behavior.
func (e *Engine) Command(line string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToUpper(fields[0]) {
	case "M155":
		// M155 S<seconds>: auto-report interval; S0 disables.
		if n, ok := argInt(fields, 'S'); ok {
			e.reportEvery = time.Duration(n) * time.Second
		}
	case "M73":
		// Bare M73 enables progress lines; P/R args set the values.
		e.progressOn = true
		if p, ok := argInt(fields, 'P'); ok {
			e.setPercentLocked(p)
		}
		if r, ok := argInt(fields, 'R'); ok {
			e.timeLeftMin = r
		}
	case "M114":
		return []string{e.positionLineLocked(), "ok"}
	case "M104":
		if s, ok := argFloat(fields, 'S'); ok {
			e.nozzleTarget = s
		}
	case "M140":
		if s, ok := argFloat(fields, 'S'); ok {
			e.bedTarget = s
		}
	case "G28":
		e.x, e.y, e.z = 0, 0, 0
		return []string{e.positionLineLocked(), "ok"}
	case "M300":
		// Chirp. Nothing to model.
	}
	return []string{"ok"}
}

// Tick advances the simulation one step and returns the report lines due:
// a temperature/power report, plus progress lines while a job runs with
// progress reporting enabled.
func (e *Engine) Tick() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nozzle = approach(e.nozzle, e.nozzleTarget)
	e.bed = approach(e.bed, e.bedTarget)
	e.heatbreak = ambient + 1 + (e.nozzle-ambient)*0.08
	e.chamber = ambient + 3 + (e.bed-ambient)*0.05

	lines := []string{e.reportLineLocked()}

	if e.printing {
		if e.timeLeftMin > 0 {
			e.timeLeftMin--
		}
		if e.changeMin > 0 {
			e.changeMin--
		}
		if e.timeLeftMin == 0 {
			e.printing = false
			e.changeMin = -1
			lines = append(lines, "Done printing")
			return lines
		}
		if e.progressOn {
			lines = append(lines,
				fmt.Sprintf("Progress: %d%%", e.percentLocked()),
				"Time left: "+fmtMinutes(e.timeLeftMin))
			if e.changeMin >= 0 {
				lines = append(lines, "Change: "+fmtMinutes(e.changeMin))
			}
		}
	}
	return lines
}

// ReportInterval returns the current auto-report cadence; zero means
// reporting is off.
func (e *Engine) ReportInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reportEvery
}

// SetReportInterval overrides the cadence directly. M155 only does whole
// seconds; tests want faster.
func (e *Engine) SetReportInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reportEvery = d
}

// StartPrint begins a fake job lasting totalMin simulated minutes. One
// minute elapses per tick, so jobs finish quickly under test.
func (e *Engine) StartPrint(totalMin int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if totalMin <= 0 {
		totalMin = 1
	}
	e.printing = true
	e.totalMin = totalMin
	e.timeLeftMin = totalMin
}

// SetChange schedules a filament change marker min minutes out; negative
// clears it.
func (e *Engine) SetChange(min int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changeMin = min
}

// MoveTo positions the toolhead; test hooks use it before asking for M114.
func (e *Engine) MoveTo(x, y, z, ex float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.x, e.y, e.z, e.e = x, y, z, ex
}

func (e *Engine) percentLocked() int {
	if e.totalMin <= 0 {
		return 0
	}
	return (e.totalMin - e.timeLeftMin) * 100 / e.totalMin
}

func (e *Engine) setPercentLocked(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if e.totalMin <= 0 {
		e.totalMin = 100
	}
	e.timeLeftMin = e.totalMin - e.totalMin*p/100
	e.printing = p < 100
}

func (e *Engine) reportLineLocked() string {
	return fmt.Sprintf("T:%.1f/%.1f B:%.1f/%.1f X:%.1f/0.0 C@:%.1f @:%d B@:%d HBR@:%d",
		e.nozzle, e.nozzleTarget, e.bed, e.bedTarget, e.heatbreak, e.chamber,
		pwm(e.nozzle, e.nozzleTarget), pwm(e.bed, e.bedTarget), pwm(e.heatbreak, 0))
}

func (e *Engine) positionLineLocked() string {
	return fmt.Sprintf("X:%.2f Y:%.2f Z:%.2f E:%.2f Count X: %d Y:%d Z:%d",
		e.x, e.y, e.z, e.e, int(e.x*80), int(e.y*80), int(e.z*400))
}

// approach moves cur one step toward target; with no target it cools
// toward ambient.
func approach(cur, target float64) float64 {
	if target <= 0 {
		return cur + (ambient-cur)*0.1
	}
	return cur + (target-cur)*0.25
}

// pwm approximates heater duty from the remaining gap.
func pwm(cur, target float64) int {
	gap := target - cur
	if gap <= 0 {
		return 0
	}
	d := int(gap * 16)
	if d > 255 {
		d = 255
	}
	return d
}

func fmtMinutes(min int) string {
	if min >= 60 {
		return fmt.Sprintf("%dh %dm", min/60, min%60)
	}
	return fmt.Sprintf("%dm", min)
}

// argInt scans G-code fields for a letter-prefixed integer like S2 or P50.
func argInt(fields []string, letter byte) (int, bool) {
	for _, f := range fields[1:] {
		if len(f) > 1 && (f[0] == letter || f[0] == letter+32) {
			if n, err := strconv.Atoi(f[1:]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func argFloat(fields []string, letter byte) (float64, bool) {
	for _, f := range fields[1:] {
		if len(f) > 1 && (f[0] == letter || f[0] == letter+32) {
			if v, err := strconv.ParseFloat(f[1:], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
