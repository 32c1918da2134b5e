package uref

import (
	"sync/atomic"
	"time"
)

// Stats is a read-only snapshot of owner statistics.
// Use Owner.Stats() to obtain a snapshot that can be exported
// to any monitoring system (Prometheus, OpenTelemetry, StatsD, etc.).
type Stats struct {
	RefsIssued     int64     // Number of refs successfully registered
	RefsDenied     int64     // Number of registrations denied after marking
	RefsReleased   int64     // Number of refs released
	DeleteAttempts int64     // Number of DeleteIfDeleteable calls
	MarkedAt       time.Time // Zero until the owner is marked
	DestroyedAt    time.Time // Zero until the resource is reclaimed
}

// stats uses atomic counters for thread-safe statistics collection.
type stats struct {
	refissued   atomic.Int64
	refdenied   atomic.Int64
	refreleased atomic.Int64
	delattempts atomic.Int64
	markedat    atomic.Int64 // nanoseconds timestamp
	destroyedat atomic.Int64 // nanoseconds timestamp
}

// snapshot returns a read-only copy of current statistics.
func (c *stats) snapshot() Stats {
	return Stats{
		RefsIssued:     c.refissued.Load(),
		RefsDenied:     c.refdenied.Load(),
		RefsReleased:   c.refreleased.Load(),
		DeleteAttempts: c.delattempts.Load(),
		MarkedAt:       nano2time(c.markedat.Load()),
		DestroyedAt:    nano2time(c.destroyedat.Load()),
	}
}

func (c *stats) markedNow()    { c.markedat.Store(time.Now().UnixNano()) }
func (c *stats) destroyedNow() { c.destroyedat.Store(time.Now().UnixNano()) }
func (c *stats) issued()       { c.refissued.Add(1) }
func (c *stats) denied()       { c.refdenied.Add(1) }
func (c *stats) released()     { c.refreleased.Add(1) }
func (c *stats) attempted()    { c.delattempts.Add(1) }

func nano2time(at int64) time.Time {
	if at == 0 {
		return time.Time{}
	}
	return time.Unix(at/1e9, at%1e9)
}
