package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/playback/internal/trace"
)

// marshalAnswers serializes answers as a canonical JSON array.
func marshalAnswers(answers []string) (string, error) {
	if answers == nil {
		answers = []string{}
	}
	b, err := trace.MarshalCanonical(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return string(b), nil
}

func unmarshalAnswers(data string) ([]string, error) {
	var answers []string
	if err := json.Unmarshal([]byte(data), &answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if answers == nil {
		answers = []string{}
	}
	return answers, nil
}

// marshalPayload serializes event args to canonical JSON. Nil args are
// stored as an empty object.
func marshalPayload(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	b, err := trace.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(b), nil
}

// unmarshalPayload decodes event args. Numbers become int64 so that the
// decoded args re-marshal to the bytes they were stored as.
func unmarshalPayload(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	args, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	m, _ := args.(map[string]any)
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func normalize(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return n, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalize(elem)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalize(elem)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}
	return v, nil
}
