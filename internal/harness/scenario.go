package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/playback/internal/engine"
)

// Scenario defines a scripted run and the checks made on its trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Script is a script file, relative to the scenario file, or
	// "builtin:<name>".
	Script string `yaml:"script"`

	// Timing overrides engine.DefaultTiming.
	Timing TimingOverrides `yaml:"timing,omitempty"`

	// Flow is the sequence of inputs and clock movements.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`

	// dir resolves relative script paths.
	dir string
}

// Dir returns the directory relative script paths resolve against.
func (s *Scenario) Dir() string { return s.dir }

// TimingOverrides replaces individual delays, in milliseconds.
type TimingOverrides struct {
	ThinkMS          *int `yaml:"think_ms,omitempty"`
	ReplyMS          *int `yaml:"reply_ms,omitempty"`
	ProcessStartMS   *int `yaml:"process_start_ms,omitempty"`
	ProcessCadenceMS *int `yaml:"process_cadence_ms,omitempty"`
	ProcessSettleMS  *int `yaml:"process_settle_ms,omitempty"`
}

// Apply returns base with the overridden delays replaced.
func (o TimingOverrides) Apply(base engine.Timing) engine.Timing {
	set := func(dst *time.Duration, ms *int) {
		if ms != nil {
			*dst = time.Duration(*ms) * time.Millisecond
		}
	}
	set(&base.ThinkDelay, o.ThinkMS)
	set(&base.ReplyDelay, o.ReplyMS)
	set(&base.ProcessStart, o.ProcessStartMS)
	set(&base.ProcessCadence, o.ProcessCadenceMS)
	set(&base.ProcessSettle, o.ProcessSettleMS)
	return base
}

// FlowStep is one action in the flow.
type FlowStep struct {
	// Action is one of the Action constants.
	Action string `yaml:"action"`

	// Duration is the clock movement for advance, e.g. "1.2s".
	Duration string `yaml:"duration,omitempty"`

	// Value is the label for choose or the text for text.
	Value string `yaml:"value,omitempty"`

	// ExpectAccepted checks the bool returned by start, choose or text.
	ExpectAccepted *bool `yaml:"expect_accepted,omitempty"`
}

// Flow action constants.
const (
	ActionStart   = "start"
	ActionAdvance = "advance"
	ActionSettle  = "settle"
	ActionChoose  = "choose"
	ActionText    = "text"
	ActionReset   = "reset"
	ActionDispose = "dispose"
)

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Call is the trace call name (trace_contains, trace_count).
	Call string `yaml:"call,omitempty"`

	// Args are the expected call arguments (trace_contains, trace_count).
	// Subset match: only the listed keys are compared.
	Args map[string]any `yaml:"args,omitempty"`

	// Calls is the expected call order (trace_order).
	Calls []string `yaml:"calls,omitempty"`

	// Count is the expected number of matching calls (trace_count).
	Count int `yaml:"count,omitempty"`

	// Fields are the expected output field values (final_fields).
	Fields map[string]string `yaml:"fields,omitempty"`

	// Confidence is the expected final confidence (final_confidence).
	Confidence *int `yaml:"confidence,omitempty"`

	// Phase is the expected final phase name (final_phase).
	Phase string `yaml:"phase,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains   = "trace_contains"
	AssertTraceOrder      = "trace_order"
	AssertTraceCount      = "trace_count"
	AssertFinalFields     = "final_fields"
	AssertFinalConfidence = "final_confidence"
	AssertFinalPhase      = "final_phase"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// ParseScenario parses scenario YAML. Relative script paths resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" for "assertions:".
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Script == "" {
		return fmt.Errorf("script is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if err := s.Timing.Apply(engine.DefaultTiming()).Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateFlowStep(i int, step FlowStep) error {
	switch step.Action {
	case "":
		return fmt.Errorf("flow[%d]: action is required", i)
	case ActionStart:
	case ActionChoose, ActionText:
		if step.Value == "" && step.ExpectAccepted == nil {
			return fmt.Errorf("flow[%d]: value is required for %s", i, step.Action)
		}
	case ActionAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("flow[%d]: invalid duration %q: %w", i, step.Duration, err)
		}
		if d < 0 {
			return fmt.Errorf("flow[%d]: duration must not be negative", i)
		}
	case ActionSettle, ActionReset, ActionDispose:
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
	}

	switch step.Action {
	case ActionStart, ActionChoose, ActionText:
	default:
		if step.ExpectAccepted != nil {
			return fmt.Errorf("flow[%d]: expect_accepted is not supported for %s", i, step.Action)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalFields:
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields is required for final_fields", index)
		}
	case AssertFinalConfidence:
		if a.Confidence == nil {
			return fmt.Errorf("assertions[%d]: confidence is required for final_confidence", index)
		}
	case AssertFinalPhase:
		if _, err := engine.ParsePhase(a.Phase); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
