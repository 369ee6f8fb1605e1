package chrolis

import "strings"

// StatusBits is the raw status bit-field reported by the instrument.
type StatusBits uint32

// StatusFlag is one defined bit of StatusBits.
type StatusFlag uint8

// Defined status flags in bit order.
const (
	FlagBoxOpen StatusFlag = iota
	FlagLLGDisconnected
	FlagInterlockOpen
	FlagDefaultAdjustment
	FlagBoxOverheated
	FlagLEDOverheated
	FlagInvalidSetup

	numStatusFlags
)

const (
	StatusNoError = "No Error"
	StatusUnknown = "Unknown Status"
)

// The order and wording are consumed verbatim by downstream diagnostics.
var statusPhrases = [numStatusFlags]string{
	FlagBoxOpen:           "Box is Open",
	FlagLLGDisconnected:   "LLG not Connected",
	FlagInterlockOpen:     "Interlock is Open",
	FlagDefaultAdjustment: "Using Default Adjustment",
	FlagBoxOverheated:     "Box Overheated",
	FlagLEDOverheated:     "LED Overheated",
	FlagInvalidSetup:      "Invalid Box Setup",
}

func (f StatusFlag) String() string {
	if f < numStatusFlags {
		return statusPhrases[f]
	}
	return StatusUnknown
}

// Bit returns the mask for this flag.
func (f StatusFlag) Bit() StatusBits {
	return 1 << f
}

// Has reports whether flag f is set.
func (s StatusBits) Has(f StatusFlag) bool {
	return s&f.Bit() != 0
}

// Flags returns the defined flags that are set, in ascending bit order.
func (s StatusBits) Flags() []StatusFlag {
	var flags []StatusFlag
	for f := StatusFlag(0); f < numStatusFlags; f++ {
		if s.Has(f) {
			flags = append(flags, f)
		}
	}
	return flags
}

// Message is shorthand for Interpret(s).
func (s StatusBits) Message() string {
	return Interpret(s)
}

// Interpret renders a status bit-field as a diagnostic string.
func Interpret(bits StatusBits) string {
	if bits == 0 {
		return StatusNoError
	}
	flags := bits.Flags()
	if len(flags) == 0 {
		return StatusUnknown
	}
	phrases := make([]string, len(flags))
	for i, f := range flags {
		phrases[i] = f.String()
	}
	return strings.Join(phrases, ", ")
}
