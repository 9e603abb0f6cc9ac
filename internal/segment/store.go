package segment

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/metrics"
)

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	Geocoder geocoding.Geocoder
	Region   geocoding.Region
	Creator  Creator
	Logger   zerolog.Logger

	// IdleTTL is how long an untouched session survives (default: 30 minutes).
	IdleTTL time.Duration

	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Store keeps one Editor per admin session so the editor can be driven over
// HTTP.
type Store struct {
	geocoder geocoding.Geocoder
	region   geocoding.Region
	creator  Creator
	logger   zerolog.Logger
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	editor   *Editor
	lastSeen time.Time
}

// NewStore creates an empty session store.
func NewStore(cfg StoreConfig) *Store {
	idleTTL := cfg.IdleTTL
	if idleTTL == 0 {
		idleTTL = 30 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	region := cfg.Region
	if region.Code == "" && region.Bounds.IsZero() {
		region = geocoding.TacnaRegion
	}

	return &Store{
		geocoder: cfg.Geocoder,
		region:   region,
		creator:  cfg.Creator,
		logger:   cfg.Logger,
		idleTTL:  idleTTL,
		now:      now,
		sessions: make(map[string]*session),
	}
}

// Create opens a new idle editor session.
func (s *Store) Create() *Editor {
	editor := NewEditor(EditorConfig{
		ID:       uuid.NewString(),
		Geocoder: s.geocoder,
		Region:   s.region,
		Creator:  s.creator,
	})

	s.mu.Lock()
	s.sweepLocked()
	s.sessions[editor.ID()] = &session{editor: editor, lastSeen: s.now()}
	metrics.SegmentSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.logger.Debug().Str("session_id", editor.ID()).Msg("segment session created")
	return editor
}

// Get returns the editor for id and refreshes its idle timer.
func (s *Store) Get(id string) (*Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.idleTTL {
		delete(s.sessions, id)
		metrics.SegmentSessions.Set(float64(len(s.sessions)))
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = now
	return sess.editor, nil
}

// Delete ends a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	metrics.SegmentSessions.Set(float64(len(s.sessions)))
	return true
}

// Sweep drops idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SegmentSessions.Set(float64(len(s.sessions)))
		s.logger.Debug().Int("removed", removed).Msg("expired segment sessions")
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
