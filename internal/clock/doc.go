// Package clock provides the time sources the playback engine runs on.
//
// The engine never reads wall-clock time directly. It asks a Scheduler to
// run a callback after a delay, and everything it does happens inside those
// callbacks or inside externally delivered input events. Two schedulers are
// provided:
//
//   - Virtual: a manually advanced clock for tests and offline tracing.
//     Callbacks fire in (deadline, schedule order), so a run is reproducible
//     byte for byte.
//   - loop.Loop (package loop): a real-time scheduler that serialises timer
//     callbacks and input events onto one goroutine.
//
// Logical is a monotonic sequence counter used to stamp trace events. It is
// independent of scheduler time so that ordering never depends on deadlines
// that happen to coincide.
package clock
