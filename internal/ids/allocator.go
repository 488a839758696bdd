// Package ids issues identifiers for users, contests and jobs.
package ids

import (
	"fmt"
	"sync/atomic"
)

type Kind int

const (
	KindUser Kind = iota
	KindContest
	KindJob

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindContest:
		return "contest"
	case KindJob:
		return "job"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Allocator hands out monotonically increasing ids, one counter per kind.
// An id is reserved as soon as Next returns, whether or not the caller
// manages to persist the resource it was meant for.
type Allocator struct {
	next [numKinds]atomic.Uint32
}

func NewAllocator() *Allocator {
	a := &Allocator{}
	// contest 0 is practice mode
	a.next[KindContest].Store(1)
	return a
}

func (a *Allocator) Next(kind Kind) uint32 {
	return a.next[kind].Add(1) - 1
}

// Peek returns the id the next call to Next would issue.
func (a *Allocator) Peek(kind Kind) uint32 {
	return a.next[kind].Load()
}

// Seed raises the counter so the next id is at least next. It never lowers it.
func (a *Allocator) Seed(kind Kind, next uint32) {
	counter := &a.next[kind]
	for {
		current := counter.Load()
		if next <= current {
			return
		}
		if counter.CompareAndSwap(current, next) {
			return
		}
	}
}
