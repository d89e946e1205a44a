// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package component implements a reactive component engine: a pure
// state-transition function (the behavior) drives a single state cell, and
// asynchronous side effects (commands) feed their results back into the same
// dispatch loop as ordinary events.
package component

import (
	"context"
	"sync"
)

type (
	// Behavior is the pure state-transition function of a component. It maps
	// the current state and an incoming event to a transition, or reports
	// false when the (state, event) pair is not part of the transition table.
	// Unmatched pairs are dropped by the engine without error.
	//
	// A behavior must be free of I/O and shared mutable state: the same
	// inputs always produce the same transition.
	Behavior[S, E, C, O any] func(state S, event E) (Transition[S, C, O], bool)

	// Transition is the result of applying a behavior to one event: the next
	// state, at most one command, and at most one output message.
	Transition[S, C, O any] struct {
		Next       S
		command    C
		hasCommand bool
		output     O
		hasOutput  bool
	}

	// Executor performs the asynchronous work a command requests and yields
	// the resulting events on the returned channel. The stream is finite, may
	// be empty, and is closed when the work concludes. Failures of the
	// underlying operation never surface as errors here; the executor maps
	// them to domain events before they reach the engine. Execute must
	// terminate the stream when ctx is cancelled.
	Executor[C, E any] interface {
		Execute(ctx context.Context, command C) <-chan E
	}

	// NopExecutor yields an empty event stream for every command.
	NopExecutor[C, E any] struct{}
)

// To starts a transition to the given state, with no command and no output.
func To[S, C, O any](next S) Transition[S, C, O] {
	return Transition[S, C, O]{Next: next}
}

// WithCommand attaches the command the transition requests.
func (t Transition[S, C, O]) WithCommand(command C) Transition[S, C, O] {
	t.command = command
	t.hasCommand = true
	return t
}

// WithOutput attaches the output message the transition publishes.
func (t Transition[S, C, O]) WithOutput(output O) Transition[S, C, O] {
	t.output = output
	t.hasOutput = true
	return t
}

// Command returns the transition's command, if any.
func (t Transition[S, C, O]) Command() (C, bool) {
	return t.command, t.hasCommand
}

// Output returns the transition's output message, if any.
func (t Transition[S, C, O]) Output() (O, bool) {
	return t.output, t.hasOutput
}

func (NopExecutor[C, E]) Execute(ctx context.Context, command C) <-chan E {
	events := make(chan E)
	close(events)
	return events
}

// Component owns one state cell and sequences every state change through a
// single dispatch path. Dispatch and the two feeds are the only things
// visible at the boundary; the state cell is never exposed for mutation.
type Component[S, E, C, O any] struct {
	behavior Behavior[S, E, C, O]
	executor Executor[C, E]

	mu     sync.Mutex
	state  S
	closed bool

	states   *feed[S]
	messages *feed[O]

	execCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a component with the given initial state. The component is
// running as soon as it is constructed; there is no separate start step.
func New[S, E, C, O any](initial S, behavior Behavior[S, E, C, O], executor Executor[C, E]) *Component[S, E, C, O] {
	execCtx, cancel := context.WithCancel(context.Background())
	c := &Component[S, E, C, O]{
		behavior: behavior,
		executor: executor,
		state:    initial,
		states:   newFeed[S](true),
		messages: newFeed[O](false),
		execCtx:  execCtx,
		cancel:   cancel,
	}
	c.states.publish(initial)
	return c
}

// Dispatch applies one event to the current state. Behavior evaluation and
// the state commit form one atomic step; no other dispatch interleaves
// between them. If the behavior produced a command it is handed to the
// executor, and every event the executor yields is routed back through
// Dispatch. If the behavior produced an output message it is published after
// the commit, exactly once. Events the behavior does not recognize for the
// current state are dropped.
func (c *Component[S, E, C, O]) Dispatch(event E) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	transition, ok := c.behavior(c.state, event)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.state = transition.Next
	c.states.publish(transition.Next)
	if output, ok := transition.Output(); ok {
		c.messages.publish(output)
	}
	command, hasCommand := transition.Command()
	if hasCommand {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if hasCommand {
		go c.forward(command)
	}
}

// forward drains one command's event stream back into the dispatch loop.
// One goroutine per command keeps the stream's own emission order; streams
// of distinct commands are not ordered relative to each other.
func (c *Component[S, E, C, O]) forward(command C) {
	defer c.wg.Done()
	for event := range c.executor.Execute(c.execCtx, command) {
		c.Dispatch(event)
	}
}

// State returns the current committed state.
func (c *Component[S, E, C, O]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// States subscribes to the state feed. The subscriber first receives the
// latest committed state, then every subsequent change in commit order. The
// channel is closed when ctx is cancelled or the component is closed.
func (c *Component[S, E, C, O]) States(ctx context.Context) <-chan S {
	return c.states.subscribe(ctx)
}

// Messages subscribes to the output-message feed. There is no replay of past
// messages; the channel is closed when ctx is cancelled or the component is
// closed.
func (c *Component[S, E, C, O]) Messages(ctx context.Context) <-chan O {
	return c.messages.subscribe(ctx)
}

// Close tears the component down: in-flight executor streams are cancelled,
// their forwarders drained, and both feeds completed. Dispatch calls after
// Close are no-ops. Close is idempotent.
func (c *Component[S, E, C, O]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.states.close()
	c.messages.close()
}
