package chrolis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name string
		bits StatusBits
		want string
	}{
		{"zero", 0, "No Error"},
		{"interlock only", 1 << 2, "Interlock is Open"},
		{"box open and overheated", 1<<0 | 1<<4, "Box is Open, Box Overheated"},
		{"undefined high bits", 1<<7 | 1<<20, "Unknown Status"},
		{"defined and undefined", 1<<6 | 1<<9, "Invalid Box Setup"},
		{
			"all defined",
			0x7f,
			"Box is Open, LLG not Connected, Interlock is Open, Using Default Adjustment, " +
				"Box Overheated, LED Overheated, Invalid Box Setup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.bits))
			assert.Equal(t, tt.want, tt.bits.Message())
		})
	}
}

func TestStatusFlags(t *testing.T) {
	bits := FlagLLGDisconnected.Bit() | FlagLEDOverheated.Bit()
	assert.True(t, bits.Has(FlagLLGDisconnected))
	assert.False(t, bits.Has(FlagBoxOpen))
	assert.Equal(t, []StatusFlag{FlagLLGDisconnected, FlagLEDOverheated}, bits.Flags())
	assert.Nil(t, StatusBits(0).Flags())
	assert.Equal(t, "Using Default Adjustment", FlagDefaultAdjustment.String())
	assert.Equal(t, StatusUnknown, StatusFlag(12).String())
}
