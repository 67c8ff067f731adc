// Package engine implements the playback Sequencer, the state machine that
// runs one Step Script.
//
// ARCHITECTURE:
//
// Single-Threaded Run Loop:
// A Sequencer is driven from exactly one goroutine. Inbound calls (Start,
// SubmitChoice, SubmitText, Reset, Dispose) and every timer callback are
// expected on that goroutine. In production it is the loop.Loop goroutine,
// in the terminal player the bubbletea update loop, and in tests the test
// goroutine driving a clock.Virtual.
//
// Event Flow:
//  1. Start enters step 0.
//  2. Entering a step applies its field updates, then presents it.
//  3. Messages, processes and replies wait on timers from the registry.
//  4. Await steps block until a valid submission arrives.
//  5. The terminal step ends the run in PhaseDone.
//
// All delays go through one timer.Registry, so Reset and Dispose cancel
// everything the run has scheduled, nested sub-sequences included.
//
// Outbound calls are fire-and-forget notifications on Host. Identical
// scripts, inputs and timing produce byte-identical outbound sequences.
package engine
