package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLoopWindows(t *testing.T) {
	c := DefaultLoop()
	if err := c.Validate(); err != nil {
		t.Fatalf("default loop configuration invalid: %v", err)
	}
	minCount, maxCount := c.NoiseWindow()
	if minCount != 9_990_000 || maxCount != 10_010_000 {
		t.Errorf("NoiseWindow() = [%d, %d], want [9990000, 10010000]", minCount, maxCount)
	}
	minLocked, maxLocked := c.LockWindow()
	if minLocked != 9_999_990 || maxLocked != 10_000_010 {
		t.Errorf("LockWindow() = [%d, %d], want [9999990, 10000010]", minLocked, maxLocked)
	}
	if got := c.Threshold(); got != 2_500_000 {
		t.Errorf("Threshold() = %d, want 2500000", got)
	}
}

func TestLoopValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Loop)
		want   error
	}{
		{"Default", func(c *Loop) {}, nil},
		{"Reference frequency too small", func(c *Loop) { c.ReferenceFrequency = 999 }, errReferenceFrequency},
		{"Reference frequency too large", func(c *Loop) { c.ReferenceFrequency = MaxReferenceFrequency + 1 }, errReferenceFrequency},
		{"Zero loop gain", func(c *Loop) { c.LoopGain = 0 }, errLoopGain},
		{"Loop gain above reference frequency", func(c *Loop) { c.LoopGain = c.ReferenceFrequency + 1 }, errThreshold},
		{"Zero max error", func(c *Loop) { c.MaxError = 0 }, errMaxError},
		{"Positive min adjust", func(c *Loop) { c.MinAdjust = 1 }, errAdjustBounds},
		{"Max adjust at threshold", func(c *Loop) { c.MaxAdjust = c.Threshold() }, errAdjustRange},
		{"Min adjust below threshold", func(c *Loop) { c.MinAdjust = -c.Threshold() - 1 }, errAdjustRange},
		{"Min adjust at threshold", func(c *Loop) { c.MinAdjust = -c.Threshold() }, nil},
		{"Single sync stage", func(c *Loop) { c.SyncStages = 1 }, errSyncStages},
		{"Too many sync stages", func(c *Loop) { c.SyncStages = MaxSyncStages + 1 }, errSyncStages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultLoop()
			tt.modify(&c)
			err := c.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	raw := []byte(`
[loop]
reference_frequency = 100000000
loop_gain = 8

[monitor]
listen_address = "127.0.0.1:9100"

[simulation]
periods = 10
offset_ppb = -2500
dropouts = [3, 4]

[actuator]
kind = "log"
step_size = "10ns"
`)
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Loop.ReferenceFrequency != 100_000_000 || f.Loop.LoopGain != 8 {
		t.Errorf("unexpected loop configuration: %+v", f.Loop)
	}
	if f.Loop.MaxError != DefaultMaxError || f.Loop.SyncStages != DefaultSyncStages {
		t.Errorf("loop defaults not applied: %+v", f.Loop)
	}
	if f.Loop.MinAdjust != DefaultMinAdjust || f.Loop.MaxAdjust != DefaultMaxAdjust {
		t.Errorf("adjust defaults not applied: [%d, %d]", f.Loop.MinAdjust, f.Loop.MaxAdjust)
	}
	if f.Monitor.ListenAddr != "127.0.0.1:9100" || f.Monitor.Window != DefaultMonitorWindow {
		t.Errorf("unexpected monitor configuration: %+v", f.Monitor)
	}
	if f.Simulation.Periods != 10 || f.Simulation.OffsetPPB != -2500 ||
		len(f.Simulation.Dropouts) != 2 || f.Simulation.SubTicks != DefaultSubTicks {
		t.Errorf("unexpected simulation configuration: %+v", f.Simulation)
	}
	if f.Simulation.PulseWidth != 10_000_000 {
		t.Errorf("PulseWidth = %d, want 10000000", f.Simulation.PulseWidth)
	}
	if f.Actuator.Kind != ActuatorKindLog || f.Actuator.StepSize != "10ns" {
		t.Errorf("unexpected actuator configuration: %+v", f.Actuator)
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Loop != DefaultLoop() {
		t.Errorf("Parse(nil).Loop = %+v, want %+v", f.Loop, DefaultLoop())
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"Unknown key", "[loop]\nreference_frequncy = 10\n", nil},
		{"Invalid gain", "[loop]\nloop_gain = -1\n", errLoopGain},
		{"Unknown actuator", "[actuator]\nkind = \"servo\"\n", errActuatorKind},
		{"Bad step size", "[actuator]\nstep_size = \"one\"\n", errStepSize},
		{"Negative step size", "[actuator]\nstep_size = \"-1ns\"\n", errStepSize},
		{"Offset out of range", "[simulation]\noffset_ppb = 2000000\n", errSimulation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.raw)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppsdo.toml")
	err := os.WriteFile(path, []byte("[loop]\nloop_gain = 2\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Loop.LoopGain != 2 {
		t.Errorf("LoopGain = %d, want 2", f.Loop.LoopGain)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want os.ErrNotExist", err)
	}
}
