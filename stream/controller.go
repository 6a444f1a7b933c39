package stream

import (
	"context"
	"errors"
	"log"

	"github.com/matt-g-everett/sensorar/router"
	"github.com/matt-g-everett/sensorar/telemetry"
)

// ErrStopped is returned by Do once the Controller has stopped running.
var ErrStopped = errors.New("controller stopped")

type command struct {
	fn   func(*router.Router)
	done chan struct{}
}

// Controller owns the Router. Measurements and commands from other
// goroutines are serialized through Run.
type Controller struct {
	router       *router.Router
	measurements chan telemetry.Measurement
	commands     chan command
	stopped      chan struct{}
}

// NewController creates a Controller that queues up to backlog measurements.
func NewController(r *router.Router, backlog int) *Controller {
	c := new(Controller)
	c.router = r
	c.measurements = make(chan telemetry.Measurement, backlog)
	c.commands = make(chan command)
	c.stopped = make(chan struct{})
	return c
}

// Submit queues a measurement, dropping it when the queue is full.
func (c *Controller) Submit(m telemetry.Measurement) bool {
	select {
	case c.measurements <- m:
		return true
	default:
		log.Printf("dropping measurement from device %d: queue full", m.DeviceID)
		return false
	}
}

// Do runs fn on the Run goroutine and waits for it to complete.
func (c *Controller) Do(ctx context.Context, fn func(*router.Router)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles measurements and commands until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case m := <-c.measurements:
			c.router.Handle(m)
		case cmd := <-c.commands:
			cmd.fn(c.router)
			close(cmd.done)
		case <-ctx.Done():
			return
		}
	}
}
