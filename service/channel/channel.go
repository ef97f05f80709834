package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/service/messaging"
	mmemory "github.com/viant/rrsched/service/messaging/memory"
)

var (
	// ErrUnknownAddress is returned when no inbox exists for a pid
	ErrUnknownAddress = errors.New("channel: unknown address")

	// ErrClosed is returned once the channel has been released
	ErrClosed = mmemory.ErrClosed
)

// Channel routes Dispatch messages to per-pid inboxes and collects Results
type Channel struct {
	inboxes map[int]*mmemory.Queue[model.Dispatch]
	results *mmemory.Queue[model.Result]
}

// New creates a channel with an inbox for every supplied pid
func New(config mmemory.Config, pids ...int) *Channel {
	ret := &Channel{
		inboxes: make(map[int]*mmemory.Queue[model.Dispatch], len(pids)),
		results: mmemory.NewQueue[model.Result](config),
	}
	for _, pid := range pids {
		ret.inboxes[pid] = mmemory.NewQueue[model.Dispatch](config)
	}
	return ret
}

// Send delivers a dispatch to the inbox addressed by its pid
func (c *Channel) Send(ctx context.Context, dispatch *model.Dispatch) error {
	inbox, ok := c.inboxes[dispatch.PID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAddress, dispatch.PID)
	}
	return inbox.Publish(ctx, dispatch)
}

// Receive blocks for the next result sent by any worker
func (c *Channel) Receive(ctx context.Context) (*model.Result, error) {
	return receive[model.Result](ctx, c.results)
}

// Endpoint returns the worker side of the channel for pid
func (c *Channel) Endpoint(pid int) (*Endpoint, error) {
	inbox, ok := c.inboxes[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAddress, pid)
	}
	return &Endpoint{pid: pid, inbox: inbox, results: c.results}, nil
}

// Addresses returns the pids served by the channel in ascending order
func (c *Channel) Addresses() []int {
	ret := make([]int, 0, len(c.inboxes))
	for pid := range c.inboxes {
		ret = append(ret, pid)
	}
	sort.Ints(ret)
	return ret
}

// Close releases every inbox and the result queue
func (c *Channel) Close() error {
	for _, inbox := range c.inboxes {
		_ = inbox.Close()
	}
	return c.results.Close()
}

// Endpoint is the worker side of the channel
type Endpoint struct {
	pid     int
	inbox   messaging.Queue[model.Dispatch]
	results messaging.Queue[model.Result]
}

// PID returns the address of the endpoint
func (e *Endpoint) PID() int {
	return e.pid
}

// Receive blocks for the next dispatch addressed to this endpoint
func (e *Endpoint) Receive(ctx context.Context) (*model.Dispatch, error) {
	return receive[model.Dispatch](ctx, e.inbox)
}

// Reply sends a result back to the scheduler
func (e *Endpoint) Reply(ctx context.Context, result *model.Result) error {
	return e.results.Publish(ctx, result)
}

func receive[T any](ctx context.Context, queue messaging.Queue[T]) (*T, error) {
	msg, err := queue.Consume(ctx)
	if err != nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	ret := *msg.T()
	return &ret, nil
}
