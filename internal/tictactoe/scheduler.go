package tictactoe

import "time"

// Task is a pending one-shot callback.
type Task interface {
	// Cancel stops the task; it reports false if the callback already started.
	Cancel() bool
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Task
}

type timerScheduler struct{}

func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(delay time.Duration, fn func()) Task {
	return timerTask{timer: time.AfterFunc(delay, fn)}
}

type timerTask struct {
	timer *time.Timer
}

func (that timerTask) Cancel() bool {
	return that.timer.Stop()
}
