// Package harness runs scripted scenarios against a Sequencer on a virtual
// clock and checks the resulting trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	script: ../scripts/qa.yaml     # or builtin:tango
//	timing:
//	  think_ms: 800
//	flow:
//	  - action: start
//	  - action: settle
//	  - action: choose
//	    value: A
//	  - action: choose
//	    value: B
//	    expect_accepted: false
//	  - action: advance
//	    duration: 400ms
//	assertions:
//	  - type: trace_contains
//	    call: field_updated
//	    args: { field: f1, value: A }
//	  - type: final_phase
//	    phase: done
//
// # Flow Actions
//
//   - start, choose, text: the Sequencer inputs; expect_accepted checks the
//     returned bool
//   - advance: moves the virtual clock forward by duration
//   - settle: fires every pending timer
//   - reset, dispose: the Sequencer lifecycle calls
//
// # Assertion Types
//
//   - trace_contains: a call with matching args (subset match) was recorded
//   - trace_order: calls appear in order, intervening calls allowed
//   - trace_count: a call (optionally with args) appears exactly N times
//   - final_fields: output fields hold the given values ("" means empty)
//   - final_confidence: the confidence metric at the end of the flow
//   - final_phase: the Sequencer phase at the end of the flow
//
// # Deterministic Testing
//
// Every scenario runs on a fresh clock.Virtual, and trace events carry a
// logical sequence number plus the virtual time. The same scenario always
// produces the same trace, so traces can be compared against golden files
// (see RunWithGolden).
//
// Autoplay answers every checkpoint without a scenario. Live does the same
// on a loop.Loop in wall-clock time; its call sequence, and therefore its
// fingerprint, matches Autoplay's for the same answers.
//
// # Usage
//
//	sc, err := harness.LoadScenario("testdata/scenarios/qa.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(sc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
