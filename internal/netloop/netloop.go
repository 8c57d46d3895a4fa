/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package netloop implements the single-threaded, non-blocking network
// event loop: one goroutine owns every registered channel's outbound ring
// buffer drain and every task posted to it, so no two callbacks ever run
// concurrently with each other for the same loop.
package netloop

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/goerajat/omnibridge-sub002/config"
	"github.com/goerajat/omnibridge-sub002/logger"
)

// Task is a unit of work posted to the loop from any goroutine; it always
// runs on the loop goroutine.
type Task func()

// Channel is the subset of a registered connection's behavior the loop
// drives every iteration.
type Channel interface {
	ID() uint64
	DrainRingBufferToSocket() error
	NeedsWrite() bool
}

// Loop is the single-threaded event loop described by spec.md's component
// design: drain tasks, drain ring buffers, wait for readiness, dispatch,
// drain ring buffers again.
type Loop struct {
	cfg config.NetworkConfig
	log logger.FuncLog

	tasks chan Task

	mu       sync.Mutex
	channels map[uint64]Channel

	stop chan struct{}
	done chan struct{}

	runningMu sync.Mutex
	running   bool
}

// New builds a Loop from cfg; log may be nil, in which case log calls are
// skipped.
func New(cfg config.NetworkConfig, log logger.FuncLog) *Loop {
	return &Loop{
		cfg:      cfg,
		log:      log,
		tasks:    make(chan Task, 1024),
		channels: make(map[uint64]Channel),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (l *Loop) logger() logger.Logger {
	if l.log == nil {
		return nil
	}
	return l.log()
}

// Register adds ch to the set the loop drains every iteration.
func (l *Loop) Register(ch Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels[ch.ID()] = ch
}

// Unregister removes a channel the loop no longer drains.
func (l *Loop) Unregister(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.channels, id)
}

// Execute posts task to run on the loop goroutine; safe from any goroutine.
// This is the only cross-thread interaction besides a channel's ring buffer.
func (l *Loop) Execute(task Task) {
	select {
	case l.tasks <- task:
	case <-l.done:
	}
}

func (l *Loop) resolveAffinityCore() int {
	switch {
	case l.cfg.CPUAffinity >= 0:
		return l.cfg.CPUAffinity
	case l.cfg.CPUAffinity == -2:
		if counts, err := cpu.Counts(true); err == nil && counts > 0 {
			return counts - 1
		}
		return -1
	default:
		return -1
	}
}

// Run blocks, driving the loop until Stop is called. It must be invoked on
// its own goroutine; the calling goroutine becomes the event-loop thread.
func (l *Loop) Run() error {
	l.runningMu.Lock()
	if l.running {
		l.runningMu.Unlock()
		return ErrorAlreadyRunning.Error()
	}
	l.running = true
	l.runningMu.Unlock()
	defer close(l.done)

	if core := l.resolveAffinityCore(); core >= 0 {
		if err := pinCurrentThread(core); err != nil {
			if lg := l.logger(); lg != nil {
				lg.Warning("netloop: cpu affinity pin failed", err)
			}
		}
	}

	timeout := time.Duration(l.cfg.SelectTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}

	for {
		select {
		case <-l.stop:
			l.closeAll()
			return nil
		default:
		}

		l.drainTasks()
		l.drainAllChannels()

		if l.cfg.BusySpinMode {
			// Non-blocking poll in a tight loop; readiness work for this
			// iteration has already happened via drainAllChannels/tasks.
		} else {
			select {
			case t := <-l.tasks:
				t()
			case <-time.After(timeout):
			case <-l.stop:
				l.closeAll()
				return nil
			}
		}

		l.drainAllChannels()
	}
}

func (l *Loop) drainTasks() {
	for {
		select {
		case t := <-l.tasks:
			t()
		default:
			return
		}
	}
}

func (l *Loop) drainAllChannels() {
	l.mu.Lock()
	chans := make([]Channel, 0, len(l.channels))
	for _, ch := range l.channels {
		chans = append(chans, ch)
	}
	l.mu.Unlock()

	for _, ch := range chans {
		if err := ch.DrainRingBufferToSocket(); err != nil {
			if lg := l.logger(); lg != nil {
				lg.Error("netloop: drain failed", err)
			}
		}
	}
}

func (l *Loop) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ch := range l.channels {
		if closer, ok := ch.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		delete(l.channels, id)
	}
}

// Stop requests the loop exit, waking it from any wait, and blocks up to
// timeout for the loop goroutine to actually exit.
func (l *Loop) Stop(timeout time.Duration) error {
	select {
	case <-l.stop:
		// already stopped
	default:
		close(l.stop)
	}

	select {
	case <-l.done:
		return nil
	case <-time.After(timeout):
		return ErrorStopTimeout.Error()
	}
}
