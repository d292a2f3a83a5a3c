// Package lfqueue implements a bounded, lock-free MPMC circular queue
// following the reservation protocol in qxengine's query-execution spec
// §4.2: each slot cycles READY_PRODUCE -> RESERVED_PRODUCE -> READY_CONSUME
// -> RESERVED_CONSUME -> READY_PRODUCE, always advanced by the single thread
// holding the reservation. It makes no FIFO guarantee across producers or
// consumers — only that no value is lost, duplicated, or observed twice.
package lfqueue

import "sync/atomic"

type slotState uint32

const (
	readyProduce slotState = iota
	reservedProduce
	readyConsume
	reservedConsume
)

// Queue is a bounded MPMC ring buffer over values of type T.
type Queue[T any] struct {
	capacity      uint64
	data          []T
	entryState    []atomic.Uint32
	produceCursor atomic.Uint64
	consumeCursor atomic.Uint64
}

// New creates a Queue with the given capacity. Capacity must be positive;
// a non-positive value is coerced to 1.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue[T]{
		capacity:   uint64(capacity),
		data:       make([]T, capacity),
		entryState: make([]atomic.Uint32, capacity),
	}
	for i := range q.entryState {
		q.entryState[i].Store(uint32(readyProduce))
	}
	return q
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int { return int(q.capacity) }

// Len returns an instantaneous estimate of the number of items in the
// queue. Under concurrent access this is a snapshot, not a guarantee.
func (q *Queue[T]) Len() int {
	p := q.produceCursor.Load()
	c := q.consumeCursor.Load()
	return int(p - c)
}

func (q *Queue[T]) full(produce, consume uint64) bool {
	return produce-consume == q.capacity
}

func (q *Queue[T]) empty(produce, consume uint64) bool {
	return produce == consume
}

// Produce attempts to enqueue v. It returns false when the queue is full (or
// momentarily looks full to this caller, e.g. racing a consumer that has
// reserved the head slot), matching the "treat as full to avoid ABA" rule of
// §4.2.1.
func (q *Queue[T]) Produce(v T) bool {
	for {
		c := q.produceCursor.Load()
		cons := q.consumeCursor.Load()
		if q.full(c, cons) {
			return false
		}
		idx := c % q.capacity
		state := &q.entryState[idx]

		if state.CompareAndSwap(uint32(readyProduce), uint32(reservedProduce)) {
			q.data[idx] = v
			q.produceCursor.CompareAndSwap(c, c+1)
			state.Store(uint32(readyConsume))
			return true
		}

		switch slotState(state.Load()) {
		case reservedProduce:
			// Another producer is mid-reservation on this slot; nudge the
			// cursor forward so we don't spin on the same index forever.
			q.produceCursor.CompareAndSwap(c, c+1)
		case reservedConsume:
			return false
		default:
			// Someone already advanced past this slot; retry from the top.
		}
	}
}

// Consume attempts to dequeue a value. The second return is false when the
// queue is empty.
func (q *Queue[T]) Consume() (T, bool) {
	for {
		c := q.consumeCursor.Load()
		prod := q.produceCursor.Load()
		if q.empty(prod, c) {
			var zero T
			return zero, false
		}
		idx := c % q.capacity
		state := &q.entryState[idx]

		if state.CompareAndSwap(uint32(readyConsume), uint32(reservedConsume)) {
			v := q.data[idx]
			var zero T
			q.data[idx] = zero
			q.consumeCursor.CompareAndSwap(c, c+1)
			state.Store(uint32(readyProduce))
			return v, true
		}

		switch slotState(state.Load()) {
		case reservedConsume:
			q.consumeCursor.CompareAndSwap(c, c+1)
		case readyProduce:
			// Head slot has not been produced into yet: report empty rather
			// than spin, per the "never reports false non-empty" invariant.
			var zero T
			return zero, false
		default:
			// reservedProduce: a producer is mid-publish on this slot; retry.
		}
	}
}
