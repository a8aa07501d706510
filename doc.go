// Package events implements a single-threaded, cooperative event loop that
// multiplexes OS file-descriptor readiness, timers, and cross-thread
// notifications onto one goroutine.
//
// # Architecture
//
// A [Loop] owns a [Monitor] (the OS readiness backend), a timer min-heap,
// and a notification queue. Exactly one goroutine — the "owning" goroutine —
// may drive a [Loop] at a time; that goroutine is the only one permitted to
// invoke source callbacks or touch the timer heap and monitor directly.
// Other goroutines interact with a running loop only through the three
// cross-thread-safe entry points: [Loop.PostNotification], [Loop.ScheduleTimer],
// and [Loop.Stop].
//
// Two readiness backends are provided: a kqueue-class backend for BSD-family
// kernels (build tag darwin/dragonfly/freebsd/netbsd/openbsd) and a
// poll(2)-class backend everywhere else. Both implement the [Monitor]
// interface and are selected automatically at compile time.
//
// # Platform support
//
// The core package builds on any Unix-like target with either kqueue or
// poll(2). There is no Windows backend; IOCP-class support would need its
// own [Monitor] implementation.
//
// # Thread safety
//
// See the package-level discussion above and the doc comments on [Loop] for
// the precise list of goroutine-safe methods.
//
// # Execution model
//
// Each iteration expires due timers, drains pending notifications, blocks on
// the monitor for a computed timeout, then drains notifications once more.
// [Loop.RunOnce], [Loop.RunForever], and [Loop.RunUntilTimeout] are all thin
// drivers over the same iteration primitive, [Loop.runOneIteration].
//
// # Error types
//
// Per-source failures (a callback reporting a closed descriptor or any other
// error) are contained to the offending source: the monitor deregisters it,
// logging the failure unless it was a closed descriptor, then continues. Failures in monitor setup or in the wait
// syscall itself are returned to the driver's caller. See [SystemError] and
// [ErrFileDescriptorClosed].
package events
