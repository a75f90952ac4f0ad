package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	p, err := New("")
	assert.NoError(t, err)
	assert.Equal(t, ModeMemory, p.Mode)

	p, err = New(" FULL ")
	assert.NoError(t, err)
	assert.Equal(t, ModeFull, p.Mode)

	_, err = New("fair-share")
	assert.Error(t, err)

	p, err = FromConfig(&Config{Mode: "full"})
	assert.NoError(t, err)
	assert.Equal(t, ModeFull, p.Mode)
}

func TestPolicy_Admit(t *testing.T) {
	available := Demand{Memory: 100, Printer: 1, Scanner: 0}
	testCases := []struct {
		description string
		mode        string
		requested   Demand
		expect      bool
	}{
		{description: "memory below available", mode: ModeMemory, requested: Demand{Memory: 99}, expect: true},
		{description: "memory equal available", mode: ModeMemory, requested: Demand{Memory: 100}, expect: false},
		{description: "memory above available", mode: ModeMemory, requested: Demand{Memory: 101}, expect: false},
		{description: "devices ignored in memory mode", mode: ModeMemory, requested: Demand{Memory: 1, Printer: 5, Scanner: 5}, expect: true},
		{description: "devices fit in full mode", mode: ModeFull, requested: Demand{Memory: 1, Printer: 1}, expect: true},
		{description: "scanner missing in full mode", mode: ModeFull, requested: Demand{Memory: 1, Scanner: 1}, expect: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			p, err := New(testCase.mode)
			assert.NoError(t, err)
			assert.Equal(t, testCase.expect, p.Admit(testCase.requested, available))
		})
	}

	var nilPolicy *Policy
	assert.True(t, nilPolicy.Admit(Demand{Memory: 1, Printer: 9}, available))
}

func TestPolicy_ChecksDevices(t *testing.T) {
	var nilPolicy *Policy
	assert.False(t, nilPolicy.ChecksDevices())
	for mode, expect := range map[string]bool{ModeMemory: false, "": false, ModeFull: true} {
		p, err := New(mode)
		assert.NoError(t, err)
		assert.Equal(t, expect, p.ChecksDevices(), "mode %q", mode)
	}
}
