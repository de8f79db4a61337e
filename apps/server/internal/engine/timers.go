package engine

import "time"

// Timer is a pending scheduled call; *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on some goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

type keyedTimer struct {
	timer    Timer
	gen      uint64
	deadline time.Time
}

func turnKey(tableID string) string { return "turn:" + tableID }
func graceKey(userID string) string { return "grace:" + userID }

// schedule replaces any timer under key. The fired intent carries the
// generation so a firing that raced with a replace or cancel is dropped.
func (e *Engine) schedule(key string, d time.Duration, build func(gen uint64) Intent) time.Time {
	e.cancelTimer(key)
	e.timerGen++
	gen := e.timerGen
	intent := build(gen)
	kt := &keyedTimer{gen: gen, deadline: e.now().Add(d)}
	kt.timer = e.sched.AfterFunc(d, func() { e.post(intent) })
	e.timers[key] = kt
	return kt.deadline
}

func (e *Engine) cancelTimer(key string) {
	if kt, ok := e.timers[key]; ok {
		kt.timer.Stop()
		delete(e.timers, key)
	}
}

// claimTimer reports whether gen is still the live timer under key and
// forgets it if so.
func (e *Engine) claimTimer(key string, gen uint64) bool {
	kt, ok := e.timers[key]
	if !ok || kt.gen != gen {
		return false
	}
	delete(e.timers, key)
	return true
}

func (e *Engine) hasTimer(key string) bool {
	_, ok := e.timers[key]
	return ok
}
