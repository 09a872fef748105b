package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/big"
)

var handleAdjectives = []string{
	"amber", "brisk", "calm", "dapper", "eager", "fuzzy", "gentle", "hazy",
	"keen", "lively", "mellow", "nimble", "quiet", "rosy", "swift", "vivid",
}

var handleNouns = []string{
	"badger", "comet", "dahlia", "falcon", "heron", "iris", "lark", "lotus",
	"maple", "otter", "pine", "quartz", "raven", "sparrow", "tulip", "wren",
}

// ParticipantColors is the fixed palette badge/cursor colors are assigned
// from at connect time.
var ParticipantColors = []string{
	"#EF4444", "#F59E0B", "#10B981", "#3B82F6",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
}

// GenerateHandle returns an adjective-noun-digits display name for
// unauthenticated participants, e.g. "mellow-otter-42".
func GenerateHandle() string {
	adj := handleAdjectives[randIndex(len(handleAdjectives))]
	noun := handleNouns[randIndex(len(handleNouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, randIndex(100))
}

// GenerateParticipantID returns a random stable id for an anonymous
// browser session.
func GenerateParticipantID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("anon-%d", randIndex(1<<30))
	}
	return "anon-" + hex.EncodeToString(bytes)
}

// ColorForID picks a stable participant color by hashing the id, so the same
// identity keeps its color across reconnects.
func ColorForID(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return ParticipantColors[int(h.Sum32())%len(ParticipantColors)]
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
