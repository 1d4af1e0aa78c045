package bridge

import (
	"encoding/json"

	"printerd/pkg/types"
)

// CatchUpMessages builds the per-category snapshot messages enqueued for a
// fresh subscriber: status first, then one message per state category.
func CatchUpMessages(st types.PrinterState) []types.Message {
	return []types.Message{
		statusMessage(st.Connected),
		temperatureMessage(st),
		progressMessage(st),
		positionMessage(st),
		powerMessage(st),
	}
}

func logMessage(text string) types.Message {
	return types.Message{Type: types.MessageLog, Payload: fitJSON(func(s string) any {
		return types.LogMessage{Type: types.MessageLog, Text: s}
	}, text)}
}

func errorMessage(code int, text string) types.Message {
	return types.Message{Type: types.MessageError, Payload: fitJSON(func(s string) any {
		return types.ErrorMessage{Type: types.MessageError, Code: code, Text: s}
	}, text)}
}

func statusMessage(connected bool) types.Message {
	b, _ := json.Marshal(types.StatusMessage{Type: types.MessageStatus, Connected: connected})
	return types.Message{Type: types.MessageStatus, Payload: b}
}

func temperatureMessage(st types.PrinterState) types.Message {
	b, _ := json.Marshal(types.TemperatureMessage{Type: types.MessageTemperature, Temperatures: st.Temps})
	return types.Message{Type: types.MessageTemperature, Payload: b}
}

func progressMessage(st types.PrinterState) types.Message {
	b, _ := json.Marshal(types.ProgressMessage{Type: types.MessageProgress, PrintProgress: st.Progress})
	return types.Message{Type: types.MessageProgress, Payload: b}
}

func positionMessage(st types.PrinterState) types.Message {
	b, _ := json.Marshal(types.PositionMessage{Type: types.MessagePosition, ToolPosition: st.Position})
	return types.Message{Type: types.MessagePosition, Payload: b}
}

func powerMessage(st types.PrinterState) types.Message {
	b, _ := json.Marshal(types.PowerMessage{Type: types.MessagePower, HeaterPower: st.Power})
	return types.Message{Type: types.MessagePower, Payload: b}
}

// fitJSON marshals build(text), trimming text rune by rune until the
// serialized message fits the wire cap. JSON escaping can grow the text, so
// the fit is checked on the serialized form, not the input length.
func fitJSON(build func(string) any, text string) []byte {
	for {
		b, _ := json.Marshal(build(text))
		if len(b) <= types.MaxMessageBytes {
			return b
		}
		r := []rune(text)
		over := len(b) - types.MaxMessageBytes
		if over > len(r) {
			over = len(r)
		}
		text = string(r[:len(r)-over])
	}
}
