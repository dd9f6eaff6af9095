package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockOrdersByDay(t *testing.T) {
	c := NewClock()
	c.Schedule(30, EventVisit, 0)
	c.Schedule(10, EventVisit, 1)
	c.Schedule(20, EventVisit, 2)

	var days []int
	for {
		ev, ok := c.Next()
		if !ok {
			break
		}
		days = append(days, ev.Day)
	}
	assert.Equal(t, []int{10, 20, 30}, days)
}

func TestClockOrdersSameDayByKindPriority(t *testing.T) {
	c := NewClock()
	c.Schedule(5, EventDecision, 0)
	c.Schedule(5, EventMonitoring, 1)
	c.Schedule(5, EventVisit, 2)

	first, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, EventVisit, first.Kind)

	second, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, EventMonitoring, second.Kind)

	third, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, EventDecision, third.Kind)
}

func TestClockTiesBreakByInsertionOrder(t *testing.T) {
	c := NewClock()
	for patient := 0; patient < 5; patient++ {
		c.Schedule(7, EventVisit, patient)
	}

	for want := 0; want < 5; want++ {
		ev, ok := c.Next()
		require.True(t, ok)
		assert.Equal(t, want, ev.Patient)
	}
	assert.Equal(t, 0, c.Len())
}
