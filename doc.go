// Package uref provides an exclusive owner for a resource that tracks
// concurrent borrows and only destroys the resource on the owner's
// explicit request, once no borrow is outstanding.
//
// # Overview
//
// Unlike reference-counted shared ownership, where destruction happens
// automatically on the last release, a uref Owner keeps sole authority
// over when, or whether, the resource dies:
//   - Lock-free: ref creation and release never take a lock
//   - Vetoed deletion: a live Ref blocks reclamation; the owner retries or waits
//   - Exactly-once: one deleter invocation over the owner's lifetime, under any contention
//   - Drainable: the waitable variant blocks shutdown until borrowers finish
//
// The intended use is shutdown and quiescence protocols: a long-lived
// component hands out Refs to workers and callbacks, then at teardown
// marks the owner, drains the borrowers and reclaims the resource.
//
// # Basic Usage
//
//	conn := openConn()
//	owner := uref.New(conn, uref.WithDeleter(func(c *Conn) { c.Shutdown() }))
//
//	ref, ok := owner.TryMakeRef() // false once marked
//	if ok {
//	    defer ref.Release()
//	    use(ref.Value())
//	}
//
//	owner.MarkForDeletion()            // no new refs from here on
//	for !owner.DeleteIfDeleteable() {  // false while refs are live
//	    time.Sleep(pollInterval)
//	}
//
// Or let the owner close itself inside a shutdown sequence:
//
//	defer owner.Close() // fails with ErrOutstandingRefs instead of leaking
//
// # Waiting Instead of Polling
//
// WaitableOwner parks the caller until the last ref is released:
//
//	owner := uref.NewWaitable(conn)
//	// ... refs handed out and used ...
//	owner.MarkAndWaitForDeletion()
//
// The context variant bounds the wait; on expiry the owner stays marked
// and a later call can finish the deletion:
//
//	if !owner.MarkAndWaitForDeletionCtx(ctx) {
//	    log.Println("borrowers still draining")
//	}
//
// # Casting Refs
//
// A ref projected through an interface can be narrowed or widened while
// keeping its single borrow unit; the owner's count never changes:
//
//	base, _ := owner.TryMakeRef()             // *uref.Ref[Shape]
//	circle, ok := uref.As[*Circle](base)      // checked narrow; base intact on failure
//	shape := uref.MustAs[Stringer](circle)    // upcast known to hold
//
// A failed As leaves the source ref fully associated, so callers can fall
// back without leaking or double-releasing a borrow.
//
// # Statistics
//
// Owners count issued, denied and released refs and record mark and
// destroy times, exported via the Stats() snapshot:
//
//	stats := owner.Stats()
//	fmt.Printf("issued: %d, denied: %d\n", stats.RefsIssued, stats.RefsDenied)
//
// # Protocol
//
// The owner must outlive its refs. Dropping the last reference to an
// Owner with live refs leaks the resource; WithLeakCheck turns a leaked
// ref into a panic so such bugs surface in tests instead of hanging a
// production shutdown.
package uref
