package wizard

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePhoto(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
	return path
}

func withPhoto(s *Store, userID int64, path string) {
	s.Update(userID, func(pad *Scratchpad) {
		pad.Step = StepHeight
		pad.PhotoPath = path
	})
}

func TestDiscardRemovesPhoto(t *testing.T) {
	s := NewStore(nil)
	path := writePhoto(t)
	s.Begin(1, 1)
	withPhoto(s, 1, path)

	s.Discard(1)

	_, ok := s.Get(1)
	assert.False(t, ok)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestBeginReplacesAndCleansUp(t *testing.T) {
	s := NewStore(nil)
	path := writePhoto(t)
	s.Begin(1, 1)
	withPhoto(s, 1, path)

	pad := s.Begin(1, 1)
	assert.Equal(t, StepCategory, pad.Step)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 1, s.Len())
}

func TestDetachKeepsPhoto(t *testing.T) {
	s := NewStore(nil)
	path := writePhoto(t)
	s.Begin(2, 2)
	withPhoto(s, 2, path)

	pad, ok := s.Detach(2)
	require.True(t, ok)
	assert.Equal(t, path, pad.PhotoPath)
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestUpdateWithoutSession(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Update(3, func(pad *Scratchpad) {})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	s.Begin(4, 4)
	pad, _ := s.Get(4)
	pad.Step = StepView
	again, _ := s.Get(4)
	assert.Equal(t, StepCategory, again.Step)
}

func TestDiscardIdleAndAll(t *testing.T) {
	s := NewStore(nil)
	oldPhoto := writePhoto(t)
	s.Begin(1, 1)
	s.Update(1, func(pad *Scratchpad) {
		pad.PhotoPath = oldPhoto
		pad.UpdatedAt = time.Now().Add(-time.Hour)
	})
	s.Begin(2, 2)

	assert.Equal(t, 1, s.DiscardIdle(30*time.Minute))
	_, err := os.Stat(oldPhoto)
	assert.True(t, os.IsNotExist(err))

	s.DiscardAll()
	assert.Zero(t, s.Len())
}

func TestConcurrentUpdatesSameUser(t *testing.T) {
	s := NewStore(nil)
	s.Begin(9, 9)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(9, func(pad *Scratchpad) { pad.Height++ })
		}()
	}
	wg.Wait()
	pad, _ := s.Get(9)
	assert.Equal(t, 50, pad.Height)
}
