package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionkit/sessionkit/pkg/session"
)

func TestGenerator_Generate(t *testing.T) {
	t.Run("produces base64url identifiers of configured entropy", func(t *testing.T) {
		gen := session.NewGenerator(32)

		id, err := gen.Generate()
		require.NoError(t, err)
		// 32 bytes -> 43 base64url chars without padding.
		assert.Len(t, id, 43)
	})

	t.Run("enforces minimum entropy", func(t *testing.T) {
		gen := session.NewGenerator(4)

		id, err := gen.Generate()
		require.NoError(t, err)
		// Raised to 16 bytes -> 22 chars.
		assert.Len(t, id, 22)
	})

	t.Run("no collisions across many identifiers", func(t *testing.T) {
		gen := session.NewGenerator(32)
		seen := make(map[string]struct{}, 10000)

		for range 10000 {
			id, err := gen.Generate()
			require.NoError(t, err)
			_, dup := seen[id]
			require.False(t, dup, "duplicate identifier generated")
			seen[id] = struct{}{}
		}
	})
}

func TestGenerator_GenerateUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts first free candidate", func(t *testing.T) {
		gen := session.NewGenerator(32)

		probes := 0
		id, err := gen.GenerateUnique(ctx, func(ctx context.Context, id string) bool {
			probes++
			return false
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, 1, probes)
	})

	t.Run("retries past collisions", func(t *testing.T) {
		gen := session.NewGenerator(32)

		probes := 0
		id, err := gen.GenerateUnique(ctx, func(ctx context.Context, id string) bool {
			probes++
			return probes <= 3
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, 4, probes)
	})

	t.Run("exhausts retries when everything collides", func(t *testing.T) {
		gen := session.NewGenerator(32)

		_, err := gen.GenerateUnique(ctx, func(ctx context.Context, id string) bool {
			return true
		})
		assert.ErrorIs(t, err, session.ErrIDExhausted)
	})

	t.Run("nil probe means no existence check", func(t *testing.T) {
		gen := session.NewGenerator(32)

		id, err := gen.GenerateUnique(ctx, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})
}
