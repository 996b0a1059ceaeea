package executor

// Level is a digital input level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Invert returns the logical complement of the level.
func (l Level) Invert() Level { return !l }

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// PinReader samples the monitored input. Implementations must be cheap and
// non-blocking: Read runs on every debounce tick inside Poll.
type PinReader interface {
	Read() Level
}

// PinFunc adapts a plain function to PinReader.
type PinFunc func() Level

func (f PinFunc) Read() Level { return f() }
