package listener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("s1", "Alex", "ext-1", now)

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "Alex", s.DisplayName)
	assert.Equal(t, "ext-1", s.ExternalUserID)
	assert.Equal(t, now, s.OpenedAt)
	assert.Zero(t, s.TotalActions)
	assert.Nil(t, s.LastActionAt)
}

func TestSession_RecordActionAndIdle(t *testing.T) {
	opened := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("s1", "Alex", "", opened)

	assert.Equal(t, 5*time.Minute, s.Idle(opened.Add(5*time.Minute)))

	s.RecordAction(opened.Add(time.Minute))
	s.RecordAction(opened.Add(2 * time.Minute))

	assert.Equal(t, 2, s.TotalActions)
	require.NotNil(t, s.LastActionAt)
	assert.Equal(t, opened.Add(2*time.Minute), *s.LastActionAt)
	assert.Equal(t, 3*time.Minute, s.Idle(opened.Add(5*time.Minute)))
}
