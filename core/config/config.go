package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultReferenceFrequency = 10_000_000
	DefaultLoopGain           = 4
	DefaultMaxError           = 4000
	DefaultMaxAdjust          = 1<<20 - 1
	DefaultMinAdjust          = -(1 << 20)
	DefaultSyncStages         = 3

	// MinSyncStages is the shortest sampling pipeline that still isolates the
	// asynchronous pulse line from the tick domain.
	MinSyncStages = 2
	// MaxSyncStages bounds the pipeline to the width of its shift register.
	MaxSyncStages = 32

	// MaxReferenceFrequency keeps ref*1.01 and every derived window far from
	// int64 overflow.
	MaxReferenceFrequency = 1 << 40
)

var (
	errReferenceFrequency = errors.New("reference_frequency out of range")
	errLoopGain           = errors.New("loop_gain must be at least 1")
	errThreshold          = errors.New("reference_frequency / loop_gain must be at least 1")
	errMaxError           = errors.New("max_error must be positive")
	errAdjustBounds       = errors.New("adjust bounds must satisfy min_adjust <= 0 <= max_adjust")
	errAdjustRange        = errors.New("adjust bounds exceed the phase step threshold")
	errSyncStages         = errors.New("sync_stages out of range")
)

// Loop holds the constants of one discipline loop. It is copied into the loop
// at construction and never changes afterwards.
type Loop struct {
	// ReferenceFrequency is the expected number of ticks per reference period.
	ReferenceFrequency int64 `toml:"reference_frequency,omitempty"`
	LoopGain           int64 `toml:"loop_gain,omitempty"`
	MaxError           int64 `toml:"max_error,omitempty"`
	MinAdjust          int64 `toml:"min_adjust,omitempty"`
	MaxAdjust          int64 `toml:"max_adjust,omitempty"`
	SyncStages         int   `toml:"sync_stages,omitempty"`
}

func DefaultLoop() Loop {
	return Loop{
		ReferenceFrequency: DefaultReferenceFrequency,
		LoopGain:           DefaultLoopGain,
		MaxError:           DefaultMaxError,
		MinAdjust:          DefaultMinAdjust,
		MaxAdjust:          DefaultMaxAdjust,
		SyncStages:         DefaultSyncStages,
	}
}

// Threshold is the phase accumulator modulus of the step spreader.
func (c Loop) Threshold() int64 {
	return c.ReferenceFrequency / c.LoopGain
}

// NoiseWindow returns the accepted raw count range, +/-0.1% of nominal.
func (c Loop) NoiseWindow() (minCount, maxCount int64) {
	return c.ReferenceFrequency - c.ReferenceFrequency/1000,
		c.ReferenceFrequency + c.ReferenceFrequency/1000
}

// LockWindow returns the raw count range counted towards lock, +/-1 ppm.
func (c Loop) LockWindow() (minLocked, maxLocked int64) {
	return c.ReferenceFrequency - c.ReferenceFrequency/1_000_000,
		c.ReferenceFrequency + c.ReferenceFrequency/1_000_000
}

func (c Loop) Validate() error {
	if c.ReferenceFrequency < 1000 || c.ReferenceFrequency > MaxReferenceFrequency {
		return fmt.Errorf("%w: %d", errReferenceFrequency, c.ReferenceFrequency)
	}
	if c.LoopGain < 1 {
		return fmt.Errorf("%w: %d", errLoopGain, c.LoopGain)
	}
	if c.Threshold() < 1 {
		return errThreshold
	}
	if c.MaxError <= 0 {
		return fmt.Errorf("%w: %d", errMaxError, c.MaxError)
	}
	if c.MinAdjust > 0 || c.MaxAdjust < 0 {
		return fmt.Errorf("%w: [%d, %d]", errAdjustBounds, c.MinAdjust, c.MaxAdjust)
	}
	// At most one step per tick requires -threshold <= adjust < threshold.
	if c.MaxAdjust >= c.Threshold() || c.MinAdjust < -c.Threshold() {
		return fmt.Errorf("%w: [%d, %d], threshold %d",
			errAdjustRange, c.MinAdjust, c.MaxAdjust, c.Threshold())
	}
	if c.SyncStages < MinSyncStages || c.SyncStages > MaxSyncStages {
		return fmt.Errorf("%w: %d", errSyncStages, c.SyncStages)
	}
	return nil
}

type Monitor struct {
	// ListenAddr serves /metrics when non-empty.
	ListenAddr string `toml:"listen_address,omitempty"`
	// Window is the number of recent accepted periods in the frequency
	// offset estimate.
	Window int `toml:"window,omitempty"`
}

type Simulation struct {
	Periods int `toml:"periods,omitempty"`
	// SubTicks is the number of phase steps per tick of the simulated
	// oscillator.
	SubTicks int64 `toml:"sub_ticks,omitempty"`
	// OffsetPPB is the free-running frequency offset of the simulated
	// oscillator in parts per billion.
	OffsetPPB  int64 `toml:"offset_ppb,omitempty"`
	PulseWidth int64 `toml:"pulse_width,omitempty"`
	// Dropouts lists reference periods (0-based) whose pulse is suppressed.
	Dropouts []int `toml:"dropouts,omitempty"`
}

type Actuator struct {
	// Kind is "sim", "system" or "log".
	Kind     string `toml:"kind,omitempty"`
	StepSize string `toml:"step_size,omitempty"`
}

// File is the TOML configuration of the ppsdo command.
type File struct {
	Loop       Loop       `toml:"loop"`
	Monitor    Monitor    `toml:"monitor"`
	Simulation Simulation `toml:"simulation"`
	Actuator   Actuator   `toml:"actuator"`
}

const (
	ActuatorKindSim    = "sim"
	ActuatorKindSystem = "system"
	ActuatorKindLog    = "log"

	DefaultMonitorWindow = 16
	DefaultPeriods       = 60
	DefaultSubTicks      = 56
	DefaultActuatorKind  = ActuatorKindSim
	DefaultActuatorStep  = "1ns"

	// MaxOffsetPPB bounds the simulated oscillator to the noise window.
	MaxOffsetPPB = 1_000_000
	MaxSubTicks  = 1 << 16
)

var (
	errActuatorKind = errors.New("unknown actuator kind")
	errStepSize     = errors.New("invalid actuator step size")
	errSimulation   = errors.New("invalid simulation parameters")
)

// Step returns the clock offset applied by one phase step.
func (a Actuator) Step() (time.Duration, error) {
	d, err := time.ParseDuration(a.StepSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errStepSize, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %v", errStepSize, d)
	}
	return d, nil
}

func Default() File {
	return File{
		Loop: DefaultLoop(),
		Monitor: Monitor{
			Window: DefaultMonitorWindow,
		},
		Simulation: Simulation{
			Periods:  DefaultPeriods,
			SubTicks: DefaultSubTicks,
		},
		Actuator: Actuator{
			Kind:     DefaultActuatorKind,
			StepSize: DefaultActuatorStep,
		},
	}
}

func applyDefaults(f *File) {
	d := Default()
	if f.Loop.ReferenceFrequency == 0 {
		f.Loop.ReferenceFrequency = d.Loop.ReferenceFrequency
	}
	if f.Loop.LoopGain == 0 {
		f.Loop.LoopGain = d.Loop.LoopGain
	}
	if f.Loop.MaxError == 0 {
		f.Loop.MaxError = d.Loop.MaxError
	}
	if f.Loop.MinAdjust == 0 && f.Loop.MaxAdjust == 0 {
		f.Loop.MinAdjust, f.Loop.MaxAdjust = d.Loop.MinAdjust, d.Loop.MaxAdjust
	}
	if f.Loop.SyncStages == 0 {
		f.Loop.SyncStages = d.Loop.SyncStages
	}
	if f.Monitor.Window == 0 {
		f.Monitor.Window = d.Monitor.Window
	}
	if f.Simulation.Periods == 0 {
		f.Simulation.Periods = d.Simulation.Periods
	}
	if f.Simulation.SubTicks == 0 {
		f.Simulation.SubTicks = d.Simulation.SubTicks
	}
	if f.Simulation.PulseWidth == 0 {
		f.Simulation.PulseWidth = f.Loop.ReferenceFrequency / 10
	}
	if f.Actuator.Kind == "" {
		f.Actuator.Kind = d.Actuator.Kind
	}
	if f.Actuator.StepSize == "" {
		f.Actuator.StepSize = d.Actuator.StepSize
	}
}

func (f File) Validate() error {
	err := f.Loop.Validate()
	if err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	switch f.Actuator.Kind {
	case ActuatorKindSim, ActuatorKindSystem, ActuatorKindLog:
	default:
		return fmt.Errorf("%w: %q", errActuatorKind, f.Actuator.Kind)
	}
	_, err = f.Actuator.Step()
	if err != nil {
		return err
	}
	s := f.Simulation
	if s.Periods < 0 || s.SubTicks < 1 || s.SubTicks > MaxSubTicks || s.PulseWidth < 1 ||
		s.PulseWidth >= f.Loop.ReferenceFrequency ||
		s.OffsetPPB < -MaxOffsetPPB || s.OffsetPPB > MaxOffsetPPB {
		return errSimulation
	}
	return nil
}

// Parse decodes a TOML document, rejecting unknown keys, and fills in
// defaults for everything left unset.
func Parse(raw []byte) (File, error) {
	var f File
	err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&f)
	if err != nil {
		return File{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	applyDefaults(&f)
	err = f.Validate()
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return Parse(raw)
}
