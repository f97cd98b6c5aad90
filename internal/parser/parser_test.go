package parser

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/cutscene/pkg/core"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"false", false, false},
		{"0", false, false},
		{"", false, false},
		{"yes", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBool(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    mgl64.Vec3
		wantErr bool
	}{
		{"plain", "1,2,3", mgl64.Vec3{1, 2, 3}, false},
		{"bracketed", "[1.5,-2,3e2]", mgl64.Vec3{1.5, -2, 300}, false},
		{"spaces", " 1, 2 ,3 ", mgl64.Vec3{1, 2, 3}, false},
		{"xy only", "4,5", mgl64.Vec3{4, 5, 0}, false},
		{"too few", "1", mgl64.Vec3{}, true},
		{"too many", "1,2,3,4", mgl64.Vec3{}, true},
		{"not a number", "1,b,3", mgl64.Vec3{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVec3(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMarker(t *testing.T) {
	m, err := ParseMarker("10,20,5;350;-10")
	require.NoError(t, err)
	assert.Equal(t, core.Marker{Position: mgl64.Vec3{10, 20, 5}, Yaw: 350, Pitch: -10}, m)

	m, err = ParseMarker(`"[1,2,3]"`)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, m.Position)
	assert.Zero(t, m.Yaw)

	m, err = ParseMarker("1,2,3;90")
	require.NoError(t, err)
	assert.Equal(t, 90.0, m.Yaw)
	assert.Zero(t, m.Pitch)

	for _, bad := range []string{"", "1,2,3;x", "1,2,3;0;y", "1,2,3;0;0;0", "a,b,c"} {
		_, err := ParseMarker(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDefineArgs(t *testing.T) {
	args := []string{`"intro"`, "true", "4", "0.5", "1", `"10,20,5;350;-10"`, `"40,20,8;10;0"`}
	def, err := ParseDefineArgs(args)
	require.NoError(t, err)

	assert.Equal(t, "intro", def.Name)
	assert.True(t, def.Cancellable)
	require.Len(t, def.Steps, 1)
	step := def.Steps[0]
	assert.Equal(t, core.StepSmooth, step.Kind)
	assert.Equal(t, 4.0, step.SecondsPerMarker)
	assert.Equal(t, 0.5, step.DelayBefore)
	assert.Equal(t, 1.0, step.DelayAfter)
	require.Len(t, step.Markers, 2)
	assert.Equal(t, 10.0, step.Markers[1].Yaw)
}

func TestParseDefineArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few", []string{"a", "true", "4", "0", "0"}},
		{"empty name", []string{`""`, "true", "4", "0", "0", "1,2,3"}},
		{"bad cancellable", []string{"a", "maybe", "4", "0", "0", "1,2,3"}},
		{"bad spm", []string{"a", "true", "x", "0", "0", "1,2,3"}},
		{"bad delayBefore", []string{"a", "true", "4", "x", "0", "1,2,3"}},
		{"bad delayAfter", []string{"a", "true", "4", "0", "x", "1,2,3"}},
		{"bad marker", []string{"a", "true", "4", "0", "0", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefineArgs(tt.args)
			assert.Error(t, err)
		})
	}

	_, err := ParseDefineArgs(nil)
	assert.ErrorIs(t, err, ErrArgCount)
}

func TestParsePlayArgs(t *testing.T) {
	p, err := ParsePlayArgs([]string{`"intro"`})
	require.NoError(t, err)
	assert.Equal(t, "intro", p.Name)
	assert.Nil(t, p.Orientation)

	p, err = ParsePlayArgs([]string{`"intro"`, `"[90,-5,0]"`})
	require.NoError(t, err)
	require.NotNil(t, p.Orientation)
	assert.Equal(t, [3]float64{90, -5, 0}, *p.Orientation)

	_, err = ParsePlayArgs(nil)
	assert.ErrorIs(t, err, ErrArgCount)
	_, err = ParsePlayArgs([]string{`""`})
	assert.Error(t, err)
	_, err = ParsePlayArgs([]string{"intro", "up"})
	assert.Error(t, err)
}

func TestParseTickArgs(t *testing.T) {
	tk, err := ParseTickArgs([]string{"0.016"})
	require.NoError(t, err)
	assert.Equal(t, TickArgs{Dt: 0.016}, tk)

	tk, err = ParseTickArgs([]string{"0.02", "true", "0"})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, tk.Dt, 1e-12)
	assert.True(t, tk.Editing)
	require.NotNil(t, tk.Health)
	assert.Zero(t, *tk.Health)

	tk, err = ParseTickArgs([]string{"0.02", "false", `""`})
	require.NoError(t, err)
	assert.Nil(t, tk.Health)

	_, err = ParseTickArgs(nil)
	assert.ErrorIs(t, err, ErrArgCount)
	_, err = ParseTickArgs([]string{"fast"})
	assert.Error(t, err)
	_, err = ParseTickArgs([]string{"0.1", "perhaps"})
	assert.Error(t, err)
	_, err = ParseTickArgs([]string{"0.1", "false", "dead"})
	assert.Error(t, err)
}

func TestParseDeathCamArgs(t *testing.T) {
	d, err := ParseDeathCamArgs([]string{`"[100,200,10]"`})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{100, 200, 10}, d.Target)

	d, err = ParseDeathCamArgs([]string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, d.Target)

	_, err = ParseDeathCamArgs(nil)
	assert.Error(t, err)
	_, err = ParseDeathCamArgs([]string{"nowhere"})
	assert.Error(t, err)
}
