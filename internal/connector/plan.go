package connector

// Channel selects which delivery path a signed transaction takes. Exactly one
// channel is used per submission; there is no cross-channel fallback.
type Channel int

const (
	// ChannelNormal sends through the public RPC node.
	ChannelNormal Channel = iota
	// ChannelPriorityNode sends through the staked RPC endpoint.
	ChannelPriorityNode
	// ChannelRelay sends through the private block-engine relay.
	ChannelRelay
)

func (c Channel) String() string {
	switch c {
	case ChannelPriorityNode:
		return "priority_node"
	case ChannelRelay:
		return "relay"
	default:
		return "normal"
	}
}

// PriorityPlan is the caller's per-request choice of delivery channel plus the
// fee and tip knobs. It decides which instructions the builder injects and
// which transport the dispatcher uses; it is never persisted.
type PriorityPlan struct {
	Channel Channel

	// TipLamports funds the relay tip transfer. Only meaningful on the relay
	// channel; ignored elsewhere.
	TipLamports uint64

	// ComputeUnitPrice, in micro-lamports, adds a compute-unit-price
	// instruction when nonzero.
	ComputeUnitPrice uint64
}

// tipEnabled reports whether the plan calls for a relay tip transfer.
// Tipping any node that is not the relay is pointless.
func (p PriorityPlan) tipEnabled() bool {
	return p.Channel == ChannelRelay && p.TipLamports > 0
}
