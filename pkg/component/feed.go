// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package component

import (
	"context"
	"sync"
)

// feed is an ordered broadcast of values to any number of subscribers.
// Publishing never blocks: each subscriber owns an unbounded queue drained by
// its own pump goroutine, so a slow consumer cannot stall the dispatch loop.
// When replay is set, a new subscriber receives the latest published value
// before any future one.
type feed[T any] struct {
	mu        sync.Mutex
	replay    bool
	latest    T
	hasLatest bool
	closed    bool
	nextID    uint64
	subs      map[uint64]*subscription[T]
}

type subscription[T any] struct {
	mu    sync.Mutex
	queue []T
	done  bool
	wake  chan struct{}
	out   chan T
}

func newFeed[T any](replay bool) *feed[T] {
	return &feed[T]{
		replay: replay,
		subs:   make(map[uint64]*subscription[T]),
	}
}

func (f *feed[T]) publish(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.latest = value
	f.hasLatest = true
	for _, sub := range f.subs {
		sub.push(value)
	}
}

func (f *feed[T]) subscribe(ctx context.Context) <-chan T {
	sub := &subscription[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}

	f.mu.Lock()
	if f.replay && f.hasLatest {
		sub.push(f.latest)
	}
	if f.closed {
		sub.finish()
		f.mu.Unlock()
		go sub.pump(ctx, func() {})
		return sub.out
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()

	go sub.pump(ctx, func() { f.unsubscribe(id) })
	return sub.out
}

func (f *feed[T]) unsubscribe(id uint64) {
	f.mu.Lock()
	delete(f.subs, id)
	f.mu.Unlock()
}

func (f *feed[T]) close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := f.subs
	f.subs = make(map[uint64]*subscription[T])
	f.mu.Unlock()

	for _, sub := range subs {
		sub.finish()
	}
}

func (s *subscription[T]) push(value T) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()
	s.signal()
}

// finish marks the end of the stream; queued values are still delivered.
func (s *subscription[T]) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscription[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump delivers queued values to the subscriber channel in publish order and
// closes it when the stream finishes or ctx is cancelled.
func (s *subscription[T]) pump(ctx context.Context, remove func()) {
	defer close(s.out)
	defer remove()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			if s.done {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-ctx.Done():
			return
		}
	}
}
