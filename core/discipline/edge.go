package discipline

// EdgeSynchronizer samples an asynchronous level into the tick domain through
// a shift register and reports each rising transition as a one-tick pulse.
// The delay between a level change and the reported edge is always
// Latency() ticks.
type EdgeSynchronizer struct {
	stages int
	mask   uint64
	pipe   uint64
	synced bool
}

func NewEdgeSynchronizer(stages int) *EdgeSynchronizer {
	s := newEdgeSynchronizer(stages)
	return &s
}

func newEdgeSynchronizer(stages int) EdgeSynchronizer {
	if stages < 2 || stages > 64 {
		panic("unexpected number of synchronizer stages")
	}
	return EdgeSynchronizer{
		stages: stages,
		mask:   uint64(1)<<stages - 1,
	}
}

// Sample shifts in one sample of the pulse line and reports whether a rising
// edge left the last stage.
func (s *EdgeSynchronizer) Sample(level bool) bool {
	s.pipe <<= 1
	if level {
		s.pipe |= 1
	}
	s.pipe &= s.mask
	synced := s.pipe>>(s.stages-1)&1 != 0
	edge := synced && !s.synced
	s.synced = synced
	return edge
}

func (s *EdgeSynchronizer) Latency() int {
	return s.stages - 1
}
