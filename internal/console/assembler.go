// Package console turns the raw printer byte stream into discrete lines and
// keeps a bounded history of them for replay.
package console

// DefaultMaxLineBytes bounds a single assembled line.
const DefaultMaxLineBytes = 512

// Assembler accumulates raw bytes into discrete text lines. Lines end at \n
// or \r; an accumulation that reaches the maximum length without a
// terminator is force-flushed so no data is lost, though the forced line may
// be truncated mid-token. Not safe for concurrent use; the device source
// owns it.
type Assembler struct {
	buf []byte
	max int
}

// NewAssembler returns an assembler that force-flushes lines at max bytes.
// A max of zero or less selects DefaultMaxLineBytes.
func NewAssembler(max int) *Assembler {
	if max <= 0 {
		max = DefaultMaxLineBytes
	}
	return &Assembler{buf: make([]byte, 0, max), max: max}
}

// Feed appends data to the accumulator and returns the lines it completed,
// in arrival order. Empty segments (blank lines, the second half of CRLF)
// produce nothing.
func (a *Assembler) Feed(data []byte) []string {
	var lines []string
	for _, b := range data {
		if b == '\n' || b == '\r' {
			if len(a.buf) > 0 {
				lines = append(lines, string(a.buf))
				a.buf = a.buf[:0]
			}
			continue
		}
		a.buf = append(a.buf, b)
		if len(a.buf) >= a.max {
			lines = append(lines, string(a.buf))
			a.buf = a.buf[:0]
		}
	}
	return lines
}

// Reset discards any partial accumulation. Called when a connection opens so
// a new session never inherits a torn line from the previous one.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
}
