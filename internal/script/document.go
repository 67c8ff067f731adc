package script

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/playback/internal/subseq"
)

// Default reveal cadence for async-process items declared in a document
// without explicit timing.
const (
	DefaultProcessStart   = 600 * time.Millisecond
	DefaultProcessCadence = 700 * time.Millisecond
	DefaultProcessSettle  = 500 * time.Millisecond
)

// scriptDoc is the shared document model for YAML and CUE sources.
type scriptDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Steps       []stepDoc `yaml:"steps"`
}

type stepDoc struct {
	Kind         string        `yaml:"kind"`
	ID           string        `yaml:"id,omitempty"`
	Text         string        `yaml:"text,omitempty"`
	Choices      []string      `yaml:"choices,omitempty"`
	Placeholder  string        `yaml:"placeholder,omitempty"`
	Instant      bool          `yaml:"instant,omitempty"`
	TargetField  string        `yaml:"target_field,omitempty"`
	FieldUpdates orderedFields `yaml:"field_updates,omitempty"`
	Confidence   *int          `yaml:"confidence,omitempty"`
	Title        string        `yaml:"title,omitempty"`
	Items        []string      `yaml:"items,omitempty"`
	Process      *programDoc   `yaml:"process,omitempty"`
}

// orderedFields keeps mapping order so field updates replay identically.
type orderedFields []FieldUpdate

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *orderedFields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: field_updates must be a mapping", node.Line)
	}
	out := make(orderedFields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var k, v string
		if err := node.Content[i].Decode(&k); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("field_updates.%s: %w", k, err)
		}
		out = append(out, FieldUpdate{Field: k, Value: v})
	}
	*o = out
	return nil
}

// programDoc is one timeline node; exactly one member must be set.
type programDoc struct {
	Series  []programDoc `yaml:"series,omitempty"`
	All     []programDoc `yaml:"all,omitempty"`
	Set     *setDoc      `yaml:"set,omitempty"`
	WaitMS  *int         `yaml:"wait_ms,omitempty"`
	Reveal  *revealDoc   `yaml:"reveal,omitempty"`
	CountUp *countUpDoc  `yaml:"count_up,omitempty"`
	Phases  *phasesDoc   `yaml:"phases,omitempty"`
	Stagger *staggerDoc  `yaml:"stagger,omitempty"`
	Burst   *burstDoc    `yaml:"burst,omitempty"`
}

type setDoc struct {
	Element string `yaml:"element"`
	State   string `yaml:"state"`
	Value   string `yaml:"value,omitempty"`
}

type revealDoc struct {
	Element   string   `yaml:"element"`
	Labels    []string `yaml:"labels"`
	StartMS   *int     `yaml:"start_ms,omitempty"`
	CadenceMS *int     `yaml:"cadence_ms,omitempty"`
	SettleMS  *int     `yaml:"settle_ms,omitempty"`
}

type countUpDoc struct {
	Element    string `yaml:"element"`
	Target     int    `yaml:"target"`
	Suffix     string `yaml:"suffix,omitempty"`
	DurationMS int    `yaml:"duration_ms"`
	TickMS     *int   `yaml:"tick_ms,omitempty"`
}

type phaseDoc struct {
	Element    string `yaml:"element"`
	DurationMS int    `yaml:"duration_ms"`
}

type phasesDoc struct {
	Bars    []phaseDoc `yaml:"bars"`
	GapMS   *int       `yaml:"gap_ms,omitempty"`
	PauseMS *int       `yaml:"pause_ms,omitempty"`
	TailMS  *int       `yaml:"tail_ms,omitempty"`
}

type staggerDoc struct {
	Elements   []string `yaml:"elements"`
	State      string   `yaml:"state,omitempty"`
	IntervalMS *int     `yaml:"interval_ms,omitempty"`
	HoldMS     int      `yaml:"hold_ms,omitempty"`
	Revert     string   `yaml:"revert,omitempty"`
	TailMS     int      `yaml:"tail_ms,omitempty"`
}

type burstDoc struct {
	Element    string `yaml:"element"`
	Count      *int   `yaml:"count,omitempty"`
	IntervalMS *int   `yaml:"interval_ms,omitempty"`
}

// compile turns a decoded document into a validated Script.
func (d *scriptDoc) compile() (*Script, error) {
	steps := make([]Step, 0, len(d.Steps))
	for i := range d.Steps {
		st, err := d.Steps[i].compile()
		if err != nil {
			return nil, stepError(d.Name, i, "", err.Error())
		}
		steps = append(steps, st)
	}
	s, err := New(d.Name, steps...)
	if err != nil {
		return nil, err
	}
	s.description = d.Description
	return s, nil
}

func (sd *stepDoc) compile() (Step, error) {
	kind, err := ParseKind(sd.Kind)
	if err != nil {
		return nil, err
	}
	if err := sd.checkFields(kind); err != nil {
		return nil, err
	}

	c := Common{
		ID:           sd.ID,
		FieldUpdates: []FieldUpdate(sd.FieldUpdates),
		Confidence:   Unchanged,
	}
	if sd.Confidence != nil {
		c.Confidence = *sd.Confidence
	}

	switch kind {
	case KindSystemMessage:
		return SystemMessage{Common: c, Text: sd.Text, Choices: sd.Choices, Placeholder: sd.Placeholder, Instant: sd.Instant}, nil
	case KindAwaitChoice:
		return AwaitChoice{Common: c, Choices: sd.Choices, TargetField: sd.TargetField}, nil
	case KindAwaitText:
		return AwaitText{Common: c, Placeholder: sd.Placeholder, TargetField: sd.TargetField}, nil
	case KindAsyncProcess:
		st := AsyncProcess{Common: c, Title: sd.Title, Items: sd.Items}
		if sd.Process != nil {
			p, err := sd.Process.compile("process")
			if err != nil {
				return nil, err
			}
			st.Process = p
		}
		return st, nil
	default:
		return Terminal{Common: c, Text: sd.Text, Instant: sd.Instant}, nil
	}
}

// checkFields rejects attributes that mean nothing for the kind.
func (sd *stepDoc) checkFields(kind Kind) error {
	type attr struct {
		name string
		set  bool
		ok   []Kind
	}
	attrs := []attr{
		{"text", sd.Text != "", []Kind{KindSystemMessage, KindTerminal}},
		{"choices", len(sd.Choices) > 0, []Kind{KindSystemMessage, KindAwaitChoice}},
		{"placeholder", sd.Placeholder != "", []Kind{KindSystemMessage, KindAwaitText}},
		{"instant", sd.Instant, []Kind{KindSystemMessage, KindTerminal}},
		{"target_field", sd.TargetField != "", []Kind{KindAwaitChoice, KindAwaitText}},
		{"title", sd.Title != "", []Kind{KindAsyncProcess}},
		{"items", len(sd.Items) > 0, []Kind{KindAsyncProcess}},
		{"process", sd.Process != nil, []Kind{KindAsyncProcess}},
	}
	for _, a := range attrs {
		if !a.set {
			continue
		}
		allowed := false
		for _, k := range a.ok {
			if k == kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%s is not allowed on %s steps", a.name, kind)
		}
	}
	if sd.Process != nil && len(sd.Items) > 0 {
		return fmt.Errorf("items and process are mutually exclusive")
	}
	return nil
}

func (pd *programDoc) compile(path string) (subseq.Program, error) {
	set := 0
	for _, b := range []bool{
		pd.Series != nil, pd.All != nil, pd.Set != nil, pd.WaitMS != nil, pd.Reveal != nil,
		pd.CountUp != nil, pd.Phases != nil, pd.Stagger != nil, pd.Burst != nil,
	} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: exactly one timeline node is required, found %d", path, set)
	}

	switch {
	case pd.Series != nil:
		children, err := compileChildren(path+".series", pd.Series)
		if err != nil {
			return nil, err
		}
		return subseq.Series(children), nil
	case pd.All != nil:
		children, err := compileChildren(path+".all", pd.All)
		if err != nil {
			return nil, err
		}
		return subseq.All(children), nil
	case pd.Set != nil:
		if pd.Set.Element == "" || pd.Set.State == "" {
			return nil, fmt.Errorf("%s.set: element and state are required", path)
		}
		return subseq.Set{Element: pd.Set.Element, State: pd.Set.State, Value: pd.Set.Value}, nil
	case pd.WaitMS != nil:
		d, err := ms(path+".wait_ms", pd.WaitMS, 0)
		if err != nil {
			return nil, err
		}
		return subseq.Wait{D: d}, nil
	case pd.Reveal != nil:
		r := pd.Reveal
		start, err := ms(path+".reveal.start_ms", r.StartMS, DefaultProcessStart)
		if err != nil {
			return nil, err
		}
		cadence, err := ms(path+".reveal.cadence_ms", r.CadenceMS, DefaultProcessCadence)
		if err != nil {
			return nil, err
		}
		settle, err := ms(path+".reveal.settle_ms", r.SettleMS, DefaultProcessSettle)
		if err != nil {
			return nil, err
		}
		return subseq.Reveal{Element: r.Element, Labels: append([]string(nil), r.Labels...), Start: start, Cadence: cadence, Settle: settle}, nil
	case pd.CountUp != nil:
		c := pd.CountUp
		if c.DurationMS < 0 {
			return nil, fmt.Errorf("%s.count_up.duration_ms: must not be negative", path)
		}
		tick, err := ms(path+".count_up.tick_ms", c.TickMS, subseq.DefaultCountTick)
		if err != nil {
			return nil, err
		}
		return subseq.CountUp{Element: c.Element, Target: c.Target, Suffix: c.Suffix, Duration: time.Duration(c.DurationMS) * time.Millisecond, Tick: tick}, nil
	case pd.Phases != nil:
		return pd.Phases.compile(path + ".phases")
	case pd.Stagger != nil:
		st := pd.Stagger
		if st.HoldMS < 0 || st.TailMS < 0 {
			return nil, fmt.Errorf("%s.stagger: durations must not be negative", path)
		}
		interval, err := ms(path+".stagger.interval_ms", st.IntervalMS, subseq.DefaultStaggerInterval)
		if err != nil {
			return nil, err
		}
		return subseq.Stagger{
			Elements: append([]string(nil), st.Elements...),
			State:    st.State,
			Interval: interval,
			Hold:     time.Duration(st.HoldMS) * time.Millisecond,
			Revert:   st.Revert,
			Tail:     time.Duration(st.TailMS) * time.Millisecond,
		}, nil
	default:
		b := pd.Burst
		count := subseq.DefaultBurstCount
		if b.Count != nil {
			if *b.Count < 0 {
				return nil, fmt.Errorf("%s.burst.count: must not be negative", path)
			}
			count = *b.Count
		}
		interval, err := ms(path+".burst.interval_ms", b.IntervalMS, subseq.DefaultBurstInterval)
		if err != nil {
			return nil, err
		}
		return subseq.Burst{Element: b.Element, Count: count, Interval: interval}, nil
	}
}

func (pd *phasesDoc) compile(path string) (subseq.Program, error) {
	gap, err := ms(path+".gap_ms", pd.GapMS, subseq.DefaultPhaseGap)
	if err != nil {
		return nil, err
	}
	pause, err := ms(path+".pause_ms", pd.PauseMS, subseq.DefaultPhasePause)
	if err != nil {
		return nil, err
	}
	tail, err := ms(path+".tail_ms", pd.TailMS, subseq.DefaultPhaseTail)
	if err != nil {
		return nil, err
	}
	pf := subseq.PhaseFill{Gap: gap, Pause: pause, Tail: tail}
	for i, b := range pd.Bars {
		if b.DurationMS < 0 {
			return nil, fmt.Errorf("%s.bars[%d].duration_ms: must not be negative", path, i)
		}
		pf.Phases = append(pf.Phases, subseq.Phase{Element: b.Element, Duration: time.Duration(b.DurationMS) * time.Millisecond})
	}
	return pf, nil
}

func compileChildren(path string, docs []programDoc) ([]subseq.Program, error) {
	out := make([]subseq.Program, 0, len(docs))
	for i := range docs {
		p, err := docs[i].compile(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ms converts an optional millisecond count, falling back to def.
func ms(path string, v *int, def time.Duration) (time.Duration, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, fmt.Errorf("%s: must not be negative", path)
	}
	return time.Duration(*v) * time.Millisecond, nil
}
