package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHandle(t *testing.T) {
	t.Run("matches adjective-noun-digits format", func(t *testing.T) {
		pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{1,2}$`)
		for i := 0; i < 20; i++ {
			handle := GenerateHandle()
			assert.True(t, pattern.MatchString(handle), "unexpected handle: %s", handle)
		}
	})
}

func TestGenerateParticipantID(t *testing.T) {
	t.Run("ids are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := GenerateParticipantID()
			assert.False(t, seen[id], "duplicate id: %s", id)
			seen[id] = true
		}
	})
}

func TestColorForID(t *testing.T) {
	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, ColorForID("u1"), ColorForID("u1"))
	})

	t.Run("always from the fixed palette", func(t *testing.T) {
		for _, id := range []string{"u1", "u2", "anon-cafe", "someone@example.com"} {
			assert.Contains(t, ParticipantColors, ColorForID(id))
		}
	})
}
