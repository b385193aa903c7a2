package metrics

const (
	LoopEdgesH              = "The total number of synchronized reference edges observed"
	LoopEdgesN              = "ppsdo_loop_edges"
	LoopEdgesAcceptedH      = "The total number of reference periods accepted for integration"
	LoopEdgesAcceptedN      = "ppsdo_loop_edges_accepted"
	LoopEdgesRejectedH      = "The total number of reference periods rejected as noise (outside +/-0.1%)"
	LoopEdgesRejectedN      = "ppsdo_loop_edges_rejected"
	LoopTimeoutsH           = "The total number of missing reference edges (period counter timeouts)"
	LoopTimeoutsN           = "ppsdo_loop_timeouts"
	LoopClampSaturationsH   = "The total number of period errors clamped to the maximum error"
	LoopClampSaturationsN   = "ppsdo_loop_clamp_saturations"
	LoopAdjustSaturationsH  = "The total number of coarse rate updates saturated at the adjust bounds"
	LoopAdjustSaturationsN  = "ppsdo_loop_adjust_saturations"
	LoopLockedH             = "Whether the loop is locked (1) or not (0)"
	LoopLockedN             = "ppsdo_loop_locked"
	LoopAdjustH             = "The current coarse correction rate"
	LoopAdjustN             = "ppsdo_loop_adjust"
	LoopLastErrorH          = "The last accepted period error in ticks"
	LoopLastErrorN          = "ppsdo_loop_last_error_ticks"
	LoopFrequencyOffsetH    = "The median frequency offset over recent accepted periods in ppm"
	LoopFrequencyOffsetN    = "ppsdo_loop_frequency_offset_ppm"
	ActuatorStepsIncrementH = "The total number of increment phase steps commanded"
	ActuatorStepsIncrementN = "ppsdo_actuator_steps_increment"
	ActuatorStepsDecrementH = "The total number of decrement phase steps commanded"
	ActuatorStepsDecrementN = "ppsdo_actuator_steps_decrement"
)
