package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wricardo/rat-race-game/game/lobby"
)

// pendingWrite is the latest queued change for one room. A nil room means
// the room is to be deleted.
type pendingWrite struct {
	room *lobby.Room
}

// Persister writes room snapshots on a background goroutine. Only the
// latest snapshot per room is kept in the queue, so a burst of actions on
// one room costs a single write.
type Persister struct {
	store  RoomPersistence
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingWrite
	closed  bool

	writeMu sync.Mutex
	wake    chan struct{}
	done    chan struct{}
}

// NewPersister starts a persister writing to store.
func NewPersister(store RoomPersistence, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		store:   store,
		logger:  logger,
		pending: make(map[string]pendingWrite),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules a save of the room, replacing any queued change for it.
func (p *Persister) Enqueue(room *lobby.Room) {
	if room == nil {
		return
	}
	p.queue(room.ID, pendingWrite{room: room.Clone()})
}

// EnqueueDelete schedules removal of a room.
func (p *Persister) EnqueueDelete(roomID string) {
	p.queue(roomID, pendingWrite{})
}

func (p *Persister) queue(roomID string, w pendingWrite) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("persister closed, dropping write", "room_id", roomID)
		return
	}
	p.pending[roomID] = w
	select {
	case p.wake <- struct{}{}:
	default:
	}
	p.mu.Unlock()
}

func (p *Persister) run() {
	defer close(p.done)
	for range p.wake {
		p.writePending(context.Background())
	}
}

// Flush writes everything queued so far and returns the first error.
func (p *Persister) Flush(ctx context.Context) error {
	return p.writePending(ctx)
}

// Close stops the background writer after flushing the queue.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.wake)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.writePending(ctx)
}

func (p *Persister) writePending(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	batch := p.pending
	p.pending = make(map[string]pendingWrite)
	p.mu.Unlock()

	var firstErr error
	for roomID, w := range batch {
		if err := ctx.Err(); err != nil {
			p.requeue(roomID, w)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		var err error
		if w.room == nil {
			err = p.store.Delete(ctx, roomID)
			if errors.Is(err, ErrRoomNotPersisted) {
				err = nil
			}
		} else {
			err = p.store.Save(ctx, w.room)
		}
		if err != nil {
			p.logger.Warn("failed to persist room", "room_id", roomID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// requeue puts back a write that was not attempted, unless a newer one
// arrived meanwhile.
func (p *Persister) requeue(roomID string, w pendingWrite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[roomID]; !ok {
		p.pending[roomID] = w
	}
}
