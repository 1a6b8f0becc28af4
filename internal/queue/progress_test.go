package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallProgressWeighting(t *testing.T) {
	jobs := []Job{
		{DurationSeconds: 10, Status: StatusDone},
		{DurationSeconds: 20, Status: StatusConverting, Progress: 0.5},
		{DurationSeconds: 70, Status: StatusWaiting},
	}
	assert.InDelta(t, 0.20, OverallProgress(jobs), 1e-9)

	jobs[2].Status = StatusCancelled
	assert.InDelta(t, 20.0/30.0, OverallProgress(jobs), 1e-9)

	jobs[2].Status = StatusFailed
	assert.InDelta(t, 20.0/30.0, OverallProgress(jobs), 1e-9)
}

func TestOverallProgressEmpty(t *testing.T) {
	assert.Zero(t, OverallProgress(nil))
	assert.Zero(t, OverallProgress([]Job{
		{DurationSeconds: 10, Status: StatusCancelled},
		{DurationSeconds: 0, Status: StatusDone},
	}))
}

func TestOverallProgressClamped(t *testing.T) {
	jobs := []Job{{DurationSeconds: 10, Status: StatusConverting, Progress: 3}}
	assert.Equal(t, 1.0, OverallProgress(jobs))
}

func TestBroadcasterLatestWins(t *testing.T) {
	b := newBroadcaster()
	b.publish(0.1)

	ch, stop := b.subscribe()
	assert.Equal(t, 0.1, <-ch, "subscription starts with the last value")

	b.publish(0.2)
	b.publish(0.3)
	assert.Equal(t, 0.3, <-ch)

	other, stopOther := b.subscribe()
	<-other
	stopOther()
	stopOther()
	_, ok := <-other
	assert.False(t, ok)

	b.publish(0.4)
	assert.Equal(t, 0.4, <-ch)
	assert.Equal(t, 0.4, b.value())

	b.close()
	_, ok = <-ch
	assert.False(t, ok)
	stop()

	late, _ := b.subscribe()
	_, ok = <-late
	require.False(t, ok)
	b.publish(1) // no subscribers, no panic
}
