package poller

import (
	"context"
	"time"
)

type Event interface {
	Timestamp() time.Time
}

type event struct{ timestamp time.Time }

func (e event) Timestamp() time.Time { return e.timestamp }

type refreshWakeupEvent struct {
	event
}

type jobEvent struct {
	event
	job *Job
}

type alarmClock struct {
	cancel      func()
	wakeupTimer *time.Ticker
	jobC        chan jobEvent
	C           chan Event
}

func newAlarmClock(wakeupInterval time.Duration) *alarmClock {
	return &alarmClock{
		wakeupTimer: time.NewTicker(wakeupInterval),
		jobC:        make(chan jobEvent, 16),
		C:           make(chan Event),
	}
}

func (a *alarmClock) Start(ctx context.Context) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		for {
			select {
			case t := <-a.wakeupTimer.C:
				a.C <- refreshWakeupEvent{event{t}}

			case evt := <-a.jobC:
				a.C <- evt

			case <-ctx.Done():
				close(a.C)
				return
			}
		}
	}()

	return a.C
}

func (a *alarmClock) Stop() {
	a.cancel()
	a.wakeupTimer.Stop()
}
