package telemetry

import (
	"fmt"
	"strings"
)

// donePhrase is printed by the firmware when a print job finishes.
const donePhrase = "Done printing"

// Parse extracts telemetry events from one line of printer output. It is
// pure and re-entrant: no state is read or kept between calls. Every
// non-empty line yields a Log event first; structured events follow when
// their markers are recognized. A field that fails to parse suppresses only
// that field, never the Log emission.
func Parse(line string) []Event {
	if line == "" {
		return nil
	}
	events := []Event{Log{Text: line}}
	if t, ok := parseTemperature(line); ok {
		events = append(events, t)
	}
	if pw, ok := parsePower(line); ok {
		events = append(events, pw)
	}
	if pr, ok := parseProgress(line); ok {
		events = append(events, pr)
	}
	if pos, ok := parsePosition(line); ok {
		events = append(events, pos)
	}
	if fe, ok := parseFirmwareError(line); ok {
		events = append(events, fe)
	}
	return events
}

// parseTemperature requires both the nozzle (T:) and bed (B:) pairs to be
// present and well formed; the heatbreak (X:) pair and the chamber (C@:)
// reading ride along in the same event when present.
func parseTemperature(line string) (Temperature, bool) {
	nozzle, okN := scanPair(line, "T:")
	bed, okB := scanPair(line, "B:")
	if !okN || !okB {
		return Temperature{}, false
	}
	t := Temperature{Nozzle: nozzle, Bed: bed}
	if hb, ok := scanPair(line, "X:"); ok {
		t.Heatbreak, t.HasHeatbreak = hb, true
	}
	if p := findMarker(line, "C@:"); p >= 0 {
		var c float64
		if n, _ := fmt.Sscanf(line[p:], "C@:%f", &c); n == 1 {
			t.Chamber, t.HasChamber = c, true
		}
	}
	return t, true
}

// parsePower classifies every "@:" token on the line by the letters that
// immediately precede it: "HBR" is the heatbreak duty, "B" the bed, "C" the
// chamber temperature (owned by parseTemperature), no letters at all the
// nozzle. Tokens with any other qualifier are ignored.
func parsePower(line string) (Power, bool) {
	var pw Power
	from := 0
	for {
		i := strings.Index(line[from:], "@:")
		if i < 0 {
			break
		}
		at := from + i
		from = at + 2
		var f float64
		if n, _ := fmt.Sscanf(line[at:], "@:%f", &f); n != 1 {
			continue
		}
		switch qualifier(line, at) {
		case "HBR":
			pw.HeatbreakPWM, pw.HasHeatbreak = roundPWM(f), true
		case "B":
			pw.BedPWM, pw.HasBed = roundPWM(f), true
		case "":
			pw.NozzlePWM, pw.HasNozzle = roundPWM(f), true
		}
	}
	return pw, pw.HasNozzle || pw.HasBed || pw.HasHeatbreak
}

// parseProgress collects the progress fields reported on their own lines.
// The completion phrase overrides whatever else the line carried.
func parseProgress(line string) (Progress, bool) {
	var pr Progress
	if p := findMarker(line, "Progress:"); p >= 0 {
		var pct int
		if n, _ := fmt.Sscanf(line[p:], "Progress: %d", &pct); n == 1 {
			pr.Percent, pr.HasPercent = pct, true
		}
	}
	if min, ok := scanDuration(line, "Time left:"); ok {
		pr.TimeLeftMin, pr.HasTimeLeft = min, true
	}
	if min, ok := scanDuration(line, "Change:"); ok {
		pr.ChangeMin, pr.HasChange = min, true
	}
	if strings.Contains(line, donePhrase) {
		pr.Percent, pr.HasPercent = 100, true
		pr.TimeLeftMin, pr.HasTimeLeft = 0, true
	}
	return pr, pr.HasPercent || pr.HasTimeLeft || pr.HasChange
}

// parsePosition handles M114-style lines. Everything from the first "Count"
// onward is the stepper echo and is discarded; all four axes must then parse
// or no event is emitted.
func parsePosition(line string) (Position, bool) {
	s := line
	if i := strings.Index(s, "Count"); i >= 0 {
		s = s[:i]
	}
	var pos Position
	for _, ax := range []struct {
		marker string
		dst    *float64
	}{{"X:", &pos.X}, {"Y:", &pos.Y}, {"Z:", &pos.Z}, {"E:", &pos.E}} {
		p := findMarker(s, ax.marker)
		if p < 0 {
			return Position{}, false
		}
		if n, _ := fmt.Sscanf(s[p:], ax.marker+"%f", ax.dst); n != 1 {
			return Position{}, false
		}
	}
	return pos, true
}

// parseFirmwareError handles "Error:<text>" lines. A leading integer in the
// text becomes the code; a bare "Error:" with no text emits nothing.
func parseFirmwareError(line string) (FirmwareError, bool) {
	p := findMarker(line, "Error:")
	if p < 0 {
		return FirmwareError{}, false
	}
	text := strings.TrimSpace(line[p+len("Error:"):])
	if text == "" {
		return FirmwareError{}, false
	}
	fe := FirmwareError{Text: text}
	var code int
	if n, _ := fmt.Sscanf(text, "%d", &code); n == 1 {
		fe.Code = code
	}
	return fe, true
}

// scanDuration reads "<marker> <h>h <m>m" or "<marker> <m>m" after marker
// and returns whole minutes.
func scanDuration(line, marker string) (int, bool) {
	p := findMarker(line, marker)
	if p < 0 {
		return 0, false
	}
	rest := line[p+len(marker):]
	var h, m int
	if n, err := fmt.Sscanf(rest, "%dh %dm", &h, &m); n == 2 && err == nil {
		return h*60 + m, true
	}
	if n, err := fmt.Sscanf(rest, "%dm", &m); n == 1 && err == nil {
		return m, true
	}
	return 0, false
}

// scanPair reads a "<marker><cur>/<target>" pair anchored at a qualified
// occurrence of marker.
func scanPair(line, marker string) (TempReading, bool) {
	p := findMarker(line, marker)
	if p < 0 {
		return TempReading{}, false
	}
	var cur, tgt float64
	if n, _ := fmt.Sscanf(line[p:], marker+"%f/%f", &cur, &tgt); n != 2 {
		return TempReading{}, false
	}
	return TempReading{Current: cur, Target: tgt}, true
}

// findMarker returns the index of the first occurrence of marker that starts
// the line or follows a space, or -1. The qualification keeps short markers
// like "B:" from matching inside longer tokens.
func findMarker(line, marker string) int {
	from := 0
	for {
		i := strings.Index(line[from:], marker)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || line[i-1] == ' ' {
			return i
		}
		from = i + 1
	}
}

// qualifier returns the run of ASCII letters immediately before position at.
func qualifier(line string, at int) string {
	s := at
	for s > 0 && isLetter(line[s-1]) {
		s--
	}
	return line[s:at]
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// roundPWM rounds half-up; duty values are never negative.
func roundPWM(f float64) int { return int(f + 0.5) }
