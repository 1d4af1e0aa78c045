package sim

import (
	"strings"
	"testing"
	"time"

	"printerd/internal/telemetry"
)

func TestCommandAcksOK(t *testing.T) {
	e := NewEngine()
	for _, cmd := range []string{"M300 S2000 P50", "G1 X10", "nonsense"} {
		resp := e.Command(cmd)
		if len(resp) == 0 || resp[len(resp)-1] != "ok" {
			t.Fatalf("command %q: response %v", cmd, resp)
		}
	}
}

func TestM155SetsReportInterval(t *testing.T) {
	e := NewEngine()
	e.Command("M155 S2")
	if got := e.ReportInterval(); got != 2*time.Second {
		t.Fatalf("interval=%v", got)
	}
	e.Command("M155 S0")
	if got := e.ReportInterval(); got != 0 {
		t.Fatalf("interval=%v after disable", got)
	}
}

func TestM114ReturnsParseablePosition(t *testing.T) {
	e := NewEngine()
	e.MoveTo(10, 20, 0.3, 1.25)
	resp := e.Command("M114")
	if len(resp) != 2 || resp[1] != "ok" {
		t.Fatalf("response %v", resp)
	}
	evs := telemetry.Parse(resp[0])
	if len(evs) != 2 {
		t.Fatalf("position line %q did not parse: %#v", resp[0], evs)
	}
	pos, ok := evs[1].(telemetry.Position)
	if !ok || pos.X != 10 || pos.Y != 20 || pos.Z != 0.3 || pos.E != 1.25 {
		t.Fatalf("unexpected position: %#v", evs[1])
	}
}

func TestG28Homes(t *testing.T) {
	e := NewEngine()
	e.MoveTo(50, 60, 7, 2)
	resp := e.Command("G28")
	evs := telemetry.Parse(resp[0])
	pos := evs[1].(telemetry.Position)
	if pos.X != 0 || pos.Y != 0 || pos.Z != 0 {
		t.Fatalf("not homed: %#v", pos)
	}
}

func TestTickReportParses(t *testing.T) {
	e := NewEngine()
	e.Command("M104 S210")
	e.Command("M140 S60")
	lines := e.Tick()
	if len(lines) != 1 {
		t.Fatalf("expected one report line, got %v", lines)
	}
	evs := telemetry.Parse(lines[0])
	if len(evs) != 3 {
		t.Fatalf("report %q: expected log+temperature+power, got %#v", lines[0], evs)
	}
	tmp := evs[1].(telemetry.Temperature)
	if tmp.Nozzle.Target != 210 || tmp.Bed.Target != 60 {
		t.Fatalf("targets not applied: %#v", tmp)
	}
	if !tmp.HasHeatbreak || !tmp.HasChamber {
		t.Fatalf("heatbreak/chamber missing: %#v", tmp)
	}
	pw := evs[2].(telemetry.Power)
	if !pw.HasNozzle || pw.NozzlePWM == 0 {
		t.Fatalf("nozzle should be heating: %#v", pw)
	}
}

func TestTemperaturesApproachTargets(t *testing.T) {
	e := NewEngine()
	e.Command("M104 S210")
	for i := 0; i < 50; i++ {
		e.Tick()
	}
	lines := e.Tick()
	evs := telemetry.Parse(lines[0])
	tmp := evs[1].(telemetry.Temperature)
	if tmp.Nozzle.Current < 205 {
		t.Fatalf("nozzle never warmed up: %#v", tmp)
	}
}

func TestPrintJobProgressAndCompletion(t *testing.T) {
	e := NewEngine()
	e.Command("M73") // enable progress lines
	e.StartPrint(3)

	var sawProgress, sawTimeLeft, sawDone bool
	for i := 0; i < 10 && !sawDone; i++ {
		for _, l := range e.Tick() {
			switch {
			case strings.HasPrefix(l, "Progress:"):
				sawProgress = true
			case strings.HasPrefix(l, "Time left:"):
				sawTimeLeft = true
			case l == "Done printing":
				sawDone = true
			}
		}
	}
	if !sawProgress || !sawTimeLeft || !sawDone {
		t.Fatalf("progress=%v timeleft=%v done=%v", sawProgress, sawTimeLeft, sawDone)
	}
}

func TestM73SetsProgress(t *testing.T) {
	e := NewEngine()
	e.Command("M73 P50 R30") // host-reported progress starts a job
	lines := e.Tick()
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Progress:") || !strings.Contains(joined, "Time left: 29m") {
		t.Fatalf("expected progress lines, got %v", lines)
	}
}

func TestFmtMinutes(t *testing.T) {
	cases := map[int]string{83: "1h 23m", 45: "45m", 0: "0m", 60: "1h 0m"}
	for in, want := range cases {
		if got := fmtMinutes(in); got != want {
			t.Fatalf("fmtMinutes(%d)=%q want %q", in, got, want)
		}
	}
}
