package wizard

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrNoSession = errors.New("no active wizard session")

// Store keeps at most one scratchpad per user. Writes for the same user are
// serialized by the store lock; the last write wins.
type Store struct {
	pads   map[int64]*Scratchpad
	mu     sync.Mutex
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pads:   make(map[int64]*Scratchpad),
		logger: logger.Named("sessions"),
	}
}

// Begin replaces any existing run with a fresh one at StepCategory. The
// previous run's cached photo is removed.
func (s *Store) Begin(userID, chatID int64) Scratchpad {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pads[userID]; ok {
		s.removePhoto(old)
	}
	pad := &Scratchpad{UserID: userID, ChatID: chatID, Step: StepCategory, UpdatedAt: time.Now()}
	s.pads[userID] = pad
	return *pad
}

// Get returns a copy of the user's scratchpad.
func (s *Store) Get(userID int64) (Scratchpad, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad, ok := s.pads[userID]
	if !ok {
		return Scratchpad{}, false
	}
	return *pad, true
}

// Update runs fn against the live scratchpad under the store lock and
// returns a copy of the result.
func (s *Store) Update(userID int64, fn func(pad *Scratchpad)) (Scratchpad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad, ok := s.pads[userID]
	if !ok {
		return Scratchpad{}, ErrNoSession
	}
	fn(pad)
	return *pad, nil
}

// Detach removes the scratchpad without touching its photo. The caller
// becomes responsible for the cached file.
func (s *Store) Detach(userID int64) (Scratchpad, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad, ok := s.pads[userID]
	if !ok {
		return Scratchpad{}, false
	}
	delete(s.pads, userID)
	return *pad, true
}

// Discard drops the scratchpad and deletes its cached photo.
func (s *Store) Discard(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pad, ok := s.pads[userID]; ok {
		s.removePhoto(pad)
		delete(s.pads, userID)
	}
}

// DiscardAll is used on shutdown.
func (s *Store) DiscardAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pad := range s.pads {
		s.removePhoto(pad)
		delete(s.pads, id)
	}
}

// DiscardIdle drops runs untouched for longer than ttl and returns how many
// were dropped.
func (s *Store) DiscardIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-ttl)
	n := 0
	for id, pad := range s.pads {
		if pad.UpdatedAt.Before(cutoff) {
			s.removePhoto(pad)
			delete(s.pads, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pads)
}

func (s *Store) removePhoto(pad *Scratchpad) {
	if pad.PhotoPath == "" {
		return
	}
	RemovePhoto(pad.PhotoPath, s.logger)
	pad.PhotoPath = ""
}

// RemovePhoto deletes a cached photo, tolerating files that are already gone.
func RemovePhoto(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to remove cached photo", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("Removed cached photo", zap.String("path", path))
}
