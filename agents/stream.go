// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"sync"
)

// Stream is a pull-based iterator over values produced asynchronously.
// It wraps a channel internally but exposes a cleaner API with error
// propagation and cleanup guarantees.
//
// Callers must call Close when done, or drain the stream fully.
type Stream[T any] struct {
	ch        <-chan T
	errCh     <-chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	err       error
}

// NewStream creates a Stream by running producer in a goroutine. The producer
// sends values to the channel and returns any terminal error; the channel is
// closed automatically when the producer returns.
func NewStream[T any](ctx context.Context, producer func(ctx context.Context, ch chan<- T) error) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan T, 1) // small buffer to reduce producer blocking
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		if err := producer(ctx, ch); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return &Stream[T]{
		ch:     ch,
		errCh:  errCh,
		cancel: cancel,
	}
}

// Next returns the next value from the stream.
// ok is false when the stream is exhausted. err is non-nil on failure.
func (s *Stream[T]) Next(ctx context.Context) (val T, ok bool, err error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case v, open := <-s.ch:
		if !open {
			// Channel closed: surface the producer error, if any.
			select {
			case e := <-s.errCh:
				if e != nil {
					s.err = e
				}
			default:
			}
			var zero T
			return zero, false, s.err
		}
		return v, true, nil
	}
}

// Collect drains the entire stream and returns all values.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, val)
	}
}

// Close cancels the producer and releases resources.
// Safe to call multiple times.
func (s *Stream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		// Drain remaining items to unblock the producer.
		for range s.ch {
		}
		select {
		case e := <-s.errCh:
			if s.err == nil {
				s.err = e
			}
		default:
		}
	})
	return nil
}
