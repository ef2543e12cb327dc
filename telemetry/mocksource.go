package telemetry

import (
	"context"
	"fmt"
	"math/rand"
)

// MockSource generates synthetic peers, for local runs and demos without a
// real Yggdrasil node — the Go counterpart of yggdrasil_client.py's
// YGGDRASIL_MOCK path.
type MockSource struct {
	rng *rand.Rand
}

// NewMockSource creates a MockSource with its own RNG, seeded with 1.
func NewMockSource() *MockSource {
	return NewMockSourceWithRand(rand.New(rand.NewSource(1)))
}

// NewMockSourceWithRand creates a MockSource with an injected RNG, for
// deterministic tests.
func NewMockSourceWithRand(rng *rand.Rand) *MockSource {
	return &MockSource{rng: rng}
}

var mockNodeSuffixes = []string{"a", "b", "c", "d", "e"}

// GetPeers returns between 2 and 5 synthetic peers named node-<letter>.
func (m *MockSource) GetPeers(ctx context.Context) (PeersResult, error) {
	count := 2 + m.rng.Intn(4)
	peers := make([]Peer, count)
	for i := range peers {
		suffix := mockNodeSuffixes[m.rng.Intn(len(mockNodeSuffixes))]
		peers[i] = Peer{Remote: fmt.Sprintf("node-%s", suffix)}
	}
	return PeersResult{Status: "ok", Peers: peers}, nil
}
