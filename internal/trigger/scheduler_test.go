package trigger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(_ context.Context) error {
	j.runs++
	return nil
}

func TestRegister_AddsEntry(t *testing.T) {
	sched := NewScheduler()

	err := sched.Register("0 3 * * *", &countingJob{})
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Entries())
}

func TestRegister_InvalidCron(t *testing.T) {
	sched := NewScheduler()

	err := sched.Register("not a cron", &countingJob{})
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	sched := NewScheduler()
	require.NoError(t, sched.Register("0 3 * * *", &countingJob{}))

	sched.Start()
	sched.Stop()
}
