package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	legal := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
		StatusCancelled: {},
		StatusCompleted: {},
	}
	all := []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

	t.Run("Table Is Exhaustive And Closed", func(t *testing.T) {
		for _, from := range all {
			for _, to := range all {
				a := &Appointment{Status: from}
				want := false
				for _, s := range legal[from] {
					if s == to {
						want = true
					}
				}
				assert.Equal(t, want, a.CanTransitionTo(to),
					"transition %s -> %s", from, to)
			}
		}
	})

	t.Run("Nothing Leaves A Terminal Status", func(t *testing.T) {
		for _, from := range []Status{StatusCancelled, StatusCompleted} {
			for _, to := range all {
				a := &Appointment{Status: from}
				assert.False(t, a.CanTransitionTo(to),
					"terminal status %s must not transition to %s", from, to)
			}
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("IsValid", func(t *testing.T) {
		assert.True(t, StatusPending.IsValid())
		assert.True(t, StatusConfirmed.IsValid())
		assert.True(t, StatusCancelled.IsValid())
		assert.True(t, StatusCompleted.IsValid())
		assert.False(t, Status("Rescheduled").IsValid())
		assert.False(t, Status("").IsValid())
	})

	t.Run("IsTerminal", func(t *testing.T) {
		assert.False(t, StatusPending.IsTerminal())
		assert.False(t, StatusConfirmed.IsTerminal())
		assert.True(t, StatusCancelled.IsTerminal())
		assert.True(t, StatusCompleted.IsTerminal())
	})
}

func TestTotalPagesFor(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 8, 1},
		{1, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{16, 8, 2},
		{17, 8, 3},
		{5, 1, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPagesFor(tc.total, tc.pageSize),
			"total=%d pageSize=%d", tc.total, tc.pageSize)
	}
}
