package tasks

import (
	"testing"
	"time"

	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNewTask(t *testing.T) {
	now := time.Date(2024, 5, 6, 22, 0, 0, 0, time.Local)

	in, err := ParseNewTask("t", "d", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", in.DueDate.String())
	assert.Equal(t, models.PriorityHigh, in.Priority)

	in, err = ParseNewTask("t", "", "2024-12-31", "low", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", in.DueDate.String())
	assert.Equal(t, models.PriorityLow, in.Priority)

	_, err = ParseNewTask("t", "", "31/12/2024", "", now)
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = ParseNewTask("t", "", "", "urgent", now)
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
