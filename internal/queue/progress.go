// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package queue

import (
	"math"
	"sync"
)

// OverallProgress is the duration weighted completion of jobs. Cancelled
// and failed jobs count neither as work done nor as work to do.
func OverallProgress(jobs []Job) float64 {
	var total, completed float64
	for _, j := range jobs {
		switch j.Status {
		case StatusCancelled, StatusFailed:
			continue
		}
		d := j.DurationSeconds
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		total += d
		switch j.Status {
		case StatusDone:
			completed += d
		case StatusConverting:
			completed += d * j.Progress
		}
	}
	if total <= 0 {
		return 0
	}
	return math.Min(math.Max(completed/total, 0), 1)
}

// broadcaster fans progress values out to subscribers. Every subscriber
// channel holds one value; a newer value replaces one not yet read.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan float64
	next   int
	last   float64
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan float64)}
}

func (b *broadcaster) publish(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.last = v
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// subscribe returns a channel primed with the last published value
func (b *broadcaster) subscribe() (<-chan float64, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan float64, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch
	ch <- b.last

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broadcaster) value() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
