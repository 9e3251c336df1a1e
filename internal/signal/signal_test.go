package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal(t *testing.T) {
	t.Run("delivers in registration order", func(t *testing.T) {
		var s Signal[int]
		var got []string
		s.Subscribe(func(v int) { got = append(got, "a") })
		s.Subscribe(func(v int) { got = append(got, "b") })
		s.Subscribe(func(v int) { got = append(got, "c") })

		s.Emit(1)

		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		var s Signal[int]
		calls := 0
		sub := s.Subscribe(func(int) { calls++ })

		sub.Unsubscribe()
		sub.Unsubscribe()
		s.Emit(1)

		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, s.Len())
		assert.False(t, sub.Active())
	})

	t.Run("subscriber added during emission waits for the next one", func(t *testing.T) {
		var s Signal[int]
		late := 0
		s.Subscribe(func(int) {
			s.Subscribe(func(int) { late++ })
		})

		s.Emit(1)
		assert.Equal(t, 0, late)

		s.Emit(2)
		assert.Equal(t, 1, late)
	})

	t.Run("subscriber removed during emission is skipped", func(t *testing.T) {
		var s Signal[int]
		calls := 0
		var second *Subscription[int]
		s.Subscribe(func(int) { second.Unsubscribe() })
		second = s.Subscribe(func(int) { calls++ })

		s.Emit(1)

		assert.Equal(t, 0, calls)
	})

	t.Run("clear releases everyone", func(t *testing.T) {
		var s Signal[string]
		sub := s.Subscribe(func(string) {})
		s.Subscribe(func(string) {})
		require.Equal(t, 2, s.Len())

		s.Clear()

		assert.Equal(t, 0, s.Len())
		assert.False(t, sub.Active())
		sub.Unsubscribe()
	})
}
