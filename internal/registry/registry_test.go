package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `
features:
  - code: leave.carryover
    name: Leave carryover
    module: leave
    description: Carry unused leave into the next period
    enabled: true
  - code: payroll.cfdi-v4
    name: CFDI 4.0 stamping
    module: payroll-mx
    enabled: false
`

func TestParseRegistry(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	require.NoError(t, err)
	require.Len(t, reg.Features, 2)

	assert.Equal(t, "leave.carryover", reg.Features[0].Code)
	assert.Equal(t, "leave", reg.Features[0].Module)
	assert.True(t, reg.Features[0].Enabled)

	f := reg.Features[1].Feature()
	assert.Equal(t, "payroll.cfdi-v4", f.Code)
	assert.Equal(t, "payroll-mx", f.Module)
	assert.False(t, f.Enabled)
}

func TestParseRejectsDuplicateCodes(t *testing.T) {
	_, err := Parse([]byte(`
features:
  - code: a
    name: A
    module: m
  - code: a
    name: A again
    module: m
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate feature code")
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := []string{
		"features:\n  - name: no code\n    module: m\n",
		"features:\n  - code: x\n    module: m\n",
		"features:\n  - code: x\n    name: X\n",
	}
	for _, in := range cases {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input: %s", in)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	reg, err := Parse([]byte("features:\n  - code: '  x  '\n    name: ' X '\n    module: ' m '\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", reg.Features[0].Code)
	assert.Equal(t, "X", reg.Features[0].Name)
	assert.Equal(t, "m", reg.Features[0].Module)
}
