package sim

import "math/rand"

// LossModel is the channel-error extension point: it is consulted once per
// delivered packet copy during fan-out and decides whether that copy is lost
// to channel errors independently of any collision. Implementations must
// draw their randomness from the simulator's seeded source to keep runs
// reproducible.
type LossModel interface {
	Lost(src, dst *Node, pkt *Packet) bool
}

// BernoulliLoss corrupts each delivered copy independently with a fixed
// probability, the simplest per-link error model.
type BernoulliLoss struct {
	p   float64
	rng *rand.Rand
}

// NewBernoulliLoss creates a loss model with per-copy loss probability p.
func NewBernoulliLoss(p float64, rng *rand.Rand) *BernoulliLoss {
	return &BernoulliLoss{p: p, rng: rng}
}

// Lost implements LossModel.
func (b *BernoulliLoss) Lost(_, _ *Node, _ *Packet) bool {
	return b.rng.Float64() < b.p
}
