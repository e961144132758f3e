package tamclient

import (
	"context"
	"iter"

	"github.com/opentam/tamclient/entity"
)

// AsyncClient runs every operation of Client on its own goroutine. Scalar
// operations hand back a Future; enumerations hand back a Stream whose
// producer suspends at the transport call until the consumer pulls.
type AsyncClient struct {
	client *Client
}

// Async wraps a Client with the asynchronous calling convention. Both
// facades share the same session, so a login performed through one is
// visible to the other.
func (c *Client) Async() *AsyncClient {
	return &AsyncClient{client: c}
}

// NewAsync creates an AsyncClient directly from Options.
func NewAsync(opts Options) (*AsyncClient, error) {
	client, err := New(opts)
	if err != nil {
		return nil, err
	}
	return client.Async(), nil
}

// Future holds the eventual result of one asynchronous operation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Await blocks until the operation finishes or ctx is done. It may be called
// any number of times; every call observes the same result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func future[T any](run func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = run()
	}()
	return f
}

// Stream is the asynchronous form of an enumeration. The producer goroutine
// starts immediately but blocks on an unbuffered channel, so the underlying
// request is paced by the consumer. A Stream is single-pass.
type Stream[T any] struct {
	ch     chan streamItem[T]
	cancel context.CancelFunc
}

type streamItem[T any] struct {
	val T
	err error
}

// Next returns the next element. ok is false once the stream is drained or
// ctx is done; after an error the stream is over.
func (s *Stream[T]) Next(ctx context.Context) (val T, err error, ok bool) {
	select {
	case item, open := <-s.ch:
		if !open {
			var zero T
			return zero, nil, false
		}
		return item.val, item.err, true
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), true
	}
}

// Close abandons the stream and releases its producer goroutine. Draining
// the stream closes it implicitly.
func (s *Stream[T]) Close() {
	s.cancel()
}

func stream[T any](ctx context.Context, produce func(ctx context.Context) iter.Seq2[T, error]) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{ch: make(chan streamItem[T]), cancel: cancel}
	go func() {
		defer close(s.ch)
		for val, err := range produce(ctx) {
			select {
			case s.ch <- streamItem[T]{val: val, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

// GetTimetable starts a timetable enumeration.
func (a *AsyncClient) GetTimetable(ctx context.Context, opts ...TimetableOption) *Stream[entity.Lesson] {
	return stream(ctx, func(ctx context.Context) iter.Seq2[entity.Lesson, error] {
		return a.client.GetTimetable(ctx, opts...)
	})
}

// GetAbsences starts an absence enumeration.
func (a *AsyncClient) GetAbsences(ctx context.Context) *Stream[entity.Absence] {
	return stream(ctx, a.client.GetAbsences)
}

// GetClassMates starts a classmate enumeration.
func (a *AsyncClient) GetClassMates(ctx context.Context) *Stream[entity.ClassMate] {
	return stream(ctx, a.client.GetClassMates)
}

// GetClassTeachers starts a class teacher enumeration.
func (a *AsyncClient) GetClassTeachers(ctx context.Context) *Stream[entity.Teacher] {
	return stream(ctx, a.client.GetClassTeachers)
}

// GetLessonAbsenceData starts a single-lesson absence lookup.
func (a *AsyncClient) GetLessonAbsenceData(ctx context.Context, lesson entity.Lesson) *Future[entity.Absence] {
	return future(func() (entity.Absence, error) {
		return a.client.GetLessonAbsenceData(ctx, lesson)
	})
}

// GetLessonAbsenceDataAll starts absence lookups for a sequence of lessons,
// answering in input order.
func (a *AsyncClient) GetLessonAbsenceDataAll(ctx context.Context, lessons []entity.Lesson) *Future[[]entity.Absence] {
	return future(func() ([]entity.Absence, error) {
		return a.client.GetLessonAbsenceDataAll(ctx, lessons)
	})
}

// GetAdditionalHomeworkInfo starts a homework detail lookup.
func (a *AsyncClient) GetAdditionalHomeworkInfo(ctx context.Context, lesson entity.Lesson) *Future[entity.Homework] {
	return future(func() (entity.Homework, error) {
		return a.client.GetAdditionalHomeworkInfo(ctx, lesson)
	})
}

// SetHomeworkData starts a homework write.
func (a *AsyncClient) SetHomeworkData(ctx context.Context, lesson entity.Lesson, title, description string) *Future[entity.Homework] {
	return future(func() (entity.Homework, error) {
		return a.client.SetHomeworkData(ctx, lesson, title, description)
	})
}

// DeleteHomeworkInfo starts a homework clear.
func (a *AsyncClient) DeleteHomeworkInfo(ctx context.Context, lesson entity.Lesson) *Future[struct{}] {
	return future(func() (struct{}, error) {
		return struct{}{}, a.client.DeleteHomeworkInfo(ctx, lesson)
	})
}

// GetResources starts a resource bundle fetch.
func (a *AsyncClient) GetResources(ctx context.Context) *Future[entity.ResourceBundle] {
	return future(func() (entity.ResourceBundle, error) {
		return a.client.GetResources(ctx)
	})
}

// GetPersonPicture starts a profile picture fetch.
func (a *AsyncClient) GetPersonPicture(ctx context.Context, personID int) *Future[[]byte] {
	return future(func() ([]byte, error) {
		return a.client.GetPersonPicture(ctx, personID)
	})
}
