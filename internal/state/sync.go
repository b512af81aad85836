package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/errmsg"
)

const saveTimeout = 10 * time.Second

// Sync writes local mutations through to a Store and applies snapshots
// written by other sessions. Local state is authoritative: failed writes
// are logged and dropped.
type Sync struct {
	store  Store
	userID string
	origin string
	logger zerolog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[Field]any
	order   []Field
	writing Field
	busy    bool
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSync starts the write worker for userID.
func NewSync(store Store, userID string, logger zerolog.Logger) *Sync {
	s := &Sync{
		store:   store,
		userID:  userID,
		origin:  uuid.NewString(),
		logger:  logger,
		pending: make(map[Field]any),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.worker()
	return s
}

// Origin identifies this session in the store.
func (s *Sync) Origin() string {
	return s.origin
}

// Push schedules a whole-field write and returns immediately. A later
// push of the same field before the write starts replaces the value.
func (s *Sync) Push(field Field, value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[field]; !ok {
		s.order = append(s.order, field)
	}
	s.pending[field] = value
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pull loads the user's document. A user without one gets an empty document.
func (s *Sync) Pull(ctx context.Context) (Document, error) {
	doc, err := s.store.Load(ctx, s.userID)
	if errors.Is(err, ErrNotFound) {
		return Document{}, nil
	}
	return doc, err
}

// Run calls apply with the fields of every snapshot that another session
// wrote since they were last seen, until ctx is done. Fields this session
// wrote last, or has a write pending for, are left nil in the document
// passed to apply.
func (s *Sync) Run(ctx context.Context, apply func(Document)) error {
	seen := make(map[Field]int64)
	return s.store.Watch(ctx, s.userID, func(snap Snapshot) {
		doc, fields := s.remote(snap, seen)
		if len(fields) == 0 {
			return
		}
		s.logger.Debug().Strs("fields", fieldNames(fields)).Msg("applying remote snapshot")
		apply(doc)
	})
}

// remote picks the fields of snap that came from other sessions and are
// newer than seen, recording their versions.
func (s *Sync) remote(snap Snapshot, seen map[Field]int64) (Document, []Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc Document
	var fields []Field
	for _, f := range Fields {
		stamp, ok := snap.Stamps[f]
		if !ok || stamp.Origin == s.origin {
			continue
		}
		if v, ok := seen[f]; ok && v == stamp.Version {
			continue
		}
		if _, ok := s.pending[f]; ok || s.writing == f {
			continue
		}
		seen[f] = stamp.Version
		doc.copyField(&snap.Document, f)
		fields = append(fields, f)
	}
	return doc, fields
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}

// Flush blocks until every pushed value has been written or dropped.
func (s *Sync) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) > 0 || s.busy {
		s.cond.Wait()
	}
}

// Close flushes pending writes and stops the worker. Pushes after Close
// are ignored.
func (s *Sync) Close() {
	s.Flush()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	s.wg.Wait()
}

func (s *Sync) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.drain()
	}
}

func (s *Sync) drain() {
	for {
		s.mu.Lock()
		if len(s.order) == 0 {
			s.busy = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		field := s.order[0]
		s.order = s.order[1:]
		value := s.pending[field]
		delete(s.pending, field)
		s.busy = true
		s.writing = field
		s.mu.Unlock()

		s.save(field, value)

		s.mu.Lock()
		s.writing = ""
		s.mu.Unlock()
	}
}

func (s *Sync) save(field Field, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.userID, field, value, s.origin); err != nil {
		s.logger.Error().Err(err).Str("field", string(field)).
			Msg(errmsg.Format(errmsg.OpStoreSave, err))
	}
}
