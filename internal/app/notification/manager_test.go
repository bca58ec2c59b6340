package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/muse/internal/app/playback"
)

type captureStream struct {
	mu  sync.Mutex
	got []Notification
}

func (c *captureStream) Send(n *Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, *n)
	return nil
}

func (c *captureStream) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.got...)
}

type blockingStream struct {
	release chan struct{}
}

func (b *blockingStream) Send(*Notification) error {
	<-b.release
	return nil
}

func TestManager_SessionFiltering(t *testing.T) {
	m := NewManager()
	s1 := &captureStream{}
	all := &captureStream{}
	m.Subscribe("s1", s1)
	m.Subscribe("", all)

	m.Note("s1", "now connected")
	m.Note("s2", "no active player found")

	require.Len(t, s1.all(), 1)
	assert.Equal(t, "now connected", s1.all()[0].Note)
	assert.Len(t, all.all(), 2)
}

func TestManager_Closed(t *testing.T) {
	m := NewManager()
	s := &captureStream{}
	m.Subscribe("s1", s)

	m.Closed("s1")
	m.Closed("s2")

	require.Len(t, s.all(), 1)
	assert.Equal(t, KindClosed, s.all()[0].Kind)
	assert.Equal(t, "s1", s.all()[0].SessionID)
}

func TestManager_SequenceNumbers(t *testing.T) {
	m := NewManager()
	s := &captureStream{}
	m.Subscribe("", s)

	m.State("s1", playback.Update{State: playback.StatePlaying, Flags: playback.StatePlaying.Flags(), Context: "ctx"})
	m.Notes("s1", []string{"first", "second"}, true)

	got := s.all()
	require.Len(t, got, 3)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, KindState, got[0].Kind)
	assert.Equal(t, "playing", got[0].State)
	assert.Equal(t, "ctx", got[0].Context)

	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.False(t, got[1].React)
	assert.Equal(t, uint64(3), got[2].SequenceNo)
	assert.True(t, got[2].React)
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &blockingStream{release: make(chan struct{})}
	defer close(slow.release)
	fast := &captureStream{}
	m.Subscribe("", slow)
	m.Subscribe("", fast)

	start := time.Now()
	m.Note("s1", "hello")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.all(), 1)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &captureStream{}
	id := m.Subscribe("", s)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	m.Note("s1", "ignored")
	assert.Empty(t, s.all())
	assert.Equal(t, 0, m.SubscriberCount())
}
