package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rachid/smart-domain/eventbus"
)

const (
	defaultWorkerCount      = 1
	defaultQueueSize        = 64
	logMsgAsyncHandleFailed = "async handler failed"
	logMsgAsyncHandlePanic  = "async handler panicked"
	logAttrPanic            = "panic"
)

var ErrDispatcherClosed = errors.New("async dispatcher is closed")
var ErrQueueFull = errors.New("async dispatcher queue is full")
var ErrInvalidWorkerCount = errors.New("worker count must be positive")
var ErrInvalidQueueSize = errors.New("queue size must be positive")

type submission struct {
	ctx   context.Context
	event eventbus.Event
}

// AsyncDispatcher is the asynchronous submission path around a handler: it
// validates events on submission and hands them to a bounded worker pool
// instead of running the handler synchronously.
//
// Submission is a distinct entry point from bus dispatch, so it revalidates
// independently. Handler failures inside the pool are logged, never returned.
type AsyncDispatcher struct {
	handler eventbus.Handler
	logger  eventbus.Logger
	queue   chan submission
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	workerCount int
	queueSize   int
}

// AsyncOption defines a functional option for configuring an AsyncDispatcher.
type AsyncOption func(*AsyncDispatcher) error

// WithWorkerCount sets how many goroutines drain the queue.
func WithWorkerCount(count int) AsyncOption {
	return func(d *AsyncDispatcher) error {
		if count < 1 {
			return ErrInvalidWorkerCount
		}

		d.workerCount = count

		return nil
	}
}

// WithQueueSize sets the submission queue capacity.
func WithQueueSize(size int) AsyncOption {
	return func(d *AsyncDispatcher) error {
		if size < 1 {
			return ErrInvalidQueueSize
		}

		d.queueSize = size

		return nil
	}
}

// WithAsyncLogger sets the logger that receives isolated handler failures.
func WithAsyncLogger(logger eventbus.Logger) AsyncOption {
	return func(d *AsyncDispatcher) error {
		d.logger = logger
		return nil
	}
}

// NewAsyncDispatcher creates an AsyncDispatcher around the given handler and
// starts its worker pool.
func NewAsyncDispatcher(handler eventbus.Handler, options ...AsyncOption) (*AsyncDispatcher, error) {
	if handler == nil {
		return nil, eventbus.ErrNilHandler
	}

	dispatcher := &AsyncDispatcher{
		handler:     handler,
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
	}

	for _, option := range options {
		if err := option(dispatcher); err != nil {
			return nil, err
		}
	}

	dispatcher.queue = make(chan submission, dispatcher.queueSize)

	for range dispatcher.workerCount {
		dispatcher.wg.Add(1)
		go dispatcher.work()
	}

	return dispatcher, nil
}

// Submit validates the event and enqueues it for background handling.
// It returns a *eventbus.ValidationError for an invalid event, ErrQueueFull
// when the queue has no room, and ErrDispatcherClosed after Close.
func (d *AsyncDispatcher) Submit(ctx context.Context, event eventbus.Event) error {
	if event == nil {
		return eventbus.ErrNotAnEvent
	}

	if validationErr := event.Validate(); validationErr != nil {
		return validationErr
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- submission{ctx: ctx, event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting submissions and waits for the workers to drain the
// queue. It is safe to call more than once.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	alreadyClosed := d.closed
	d.closed = true
	if !alreadyClosed {
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()

	for sub := range d.queue {
		d.handleOne(sub)
	}
}

func (d *AsyncDispatcher) handleOne(sub submission) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if d.logger != nil {
				d.logger.Error(logMsgAsyncHandlePanic,
					logAttrEventType, sub.event.EventType(),
					logAttrPanic, fmt.Sprintf("%v", recovered))
			}
		}
	}()

	if !d.handler.CanHandle(sub.event.EventType()) {
		return
	}

	if handleErr := d.handler.Handle(sub.ctx, sub.event); handleErr != nil {
		if d.logger != nil {
			d.logger.Error(logMsgAsyncHandleFailed,
				logAttrEventType, sub.event.EventType(),
				logAttrError, handleErr.Error())
		}
	}
}
