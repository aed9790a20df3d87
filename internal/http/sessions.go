package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"emnnit/console/internal/schedule"
)

// WeeklySession is one open weekly schedule editor. The grid is the edited
// state; selector changes are handled by the browser creating a new session,
// never by merging into an old one.
type WeeklySession struct {
	ID       string
	Group    string
	Semester string

	mu         sync.Mutex
	grid       schedule.Grid
	lastActive time.Time
}

func (s *WeeklySession) touch() {
	s.lastActive = time.Now()
}

// Grid returns a snapshot of the current grid.
func (s *WeeklySession) Grid() schedule.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Apply runs one reducer action against the session grid.
func (s *WeeklySession) Apply(action schedule.Action) (schedule.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := schedule.Apply(s.grid, action)
	if err != nil {
		return nil, err
	}
	s.grid = next
	s.touch()
	return next.Clone(), nil
}

// Replace swaps in a freshly fetched grid, discarding local edits. Used on
// creation and whenever a live update forces a re-fetch.
func (s *WeeklySession) Replace(grid schedule.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	s.touch()
}

// ProfessorSession is one open professor schedule editor. Edits live in the
// grid regardless of edit mode; toggling the mode never discards them.
type ProfessorSession struct {
	ID          string
	ProfessorID string

	mu         sync.Mutex
	grid       schedule.ProfessorGrid
	editMode   bool
	lastActive time.Time
}

func (s *ProfessorSession) touch() {
	s.lastActive = time.Now()
}

func (s *ProfessorSession) Grid() (schedule.ProfessorGrid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone(), s.editMode
}

func (s *ProfessorSession) SetCell(day, slot, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.grid.SetCell(day, slot, field, value); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *ProfessorSession) SetEditMode(editMode bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = editMode
	s.touch()
}

// Flatten snapshots the rows to bulk-save.
func (s *ProfessorSession) Flatten() []schedule.ProfessorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.grid.Flatten(s.ProfessorID)
}

func (s *ProfessorSession) Replace(grid schedule.ProfessorGrid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	s.touch()
}

// SessionStore keeps every open editor session in memory. The institute
// service remains the sole durable store; losing a session only costs a
// re-fetch.
type SessionStore struct {
	mu        sync.Mutex
	weekly    map[string]*WeeklySession
	professor map[string]*ProfessorSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		weekly:    make(map[string]*WeeklySession),
		professor: make(map[string]*ProfessorSession),
	}
}

func (st *SessionStore) NewWeekly(group, semester string, grid schedule.Grid) *WeeklySession {
	session := &WeeklySession{
		ID:         uuid.NewString(),
		Group:      group,
		Semester:   semester,
		grid:       grid,
		lastActive: time.Now(),
	}
	st.mu.Lock()
	st.weekly[session.ID] = session
	st.mu.Unlock()
	return session
}

func (st *SessionStore) Weekly(id string) (*WeeklySession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.weekly[id]
	return session, ok
}

// WeeklyMatching returns every weekly session editing the given selection.
func (st *SessionStore) WeeklyMatching(group, semester string) []*WeeklySession {
	st.mu.Lock()
	defer st.mu.Unlock()
	matches := make([]*WeeklySession, 0)
	for _, session := range st.weekly {
		if session.Group == group && session.Semester == semester {
			matches = append(matches, session)
		}
	}
	return matches
}

func (st *SessionStore) DeleteWeekly(id string) {
	st.mu.Lock()
	delete(st.weekly, id)
	st.mu.Unlock()
}

func (st *SessionStore) NewProfessor(professorID string, grid schedule.ProfessorGrid) *ProfessorSession {
	session := &ProfessorSession{
		ID:          uuid.NewString(),
		ProfessorID: professorID,
		grid:        grid,
		lastActive:  time.Now(),
	}
	st.mu.Lock()
	st.professor[session.ID] = session
	st.mu.Unlock()
	return session
}

func (st *SessionStore) Professor(id string) (*ProfessorSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.professor[id]
	return session, ok
}

func (st *SessionStore) DeleteProfessor(id string) {
	st.mu.Lock()
	delete(st.professor, id)
	st.mu.Unlock()
}

// SweepIdle drops sessions whose last activity predates the cutoff and
// reports how many were evicted.
func (st *SessionStore) SweepIdle(olderThan time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for id, session := range st.weekly {
		session.mu.Lock()
		idle := session.lastActive.Before(olderThan)
		session.mu.Unlock()
		if idle {
			delete(st.weekly, id)
			evicted++
		}
	}
	for id, session := range st.professor {
		session.mu.Lock()
		idle := session.lastActive.Before(olderThan)
		session.mu.Unlock()
		if idle {
			delete(st.professor, id)
			evicted++
		}
	}
	return evicted
}
