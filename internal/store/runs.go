package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/playback/internal/trace"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded trace run.
type Run struct {
	ID          string   `json:"id"`
	Script      string   `json:"script"`
	Answers     []string `json:"answers"`
	Fingerprint string   `json:"fingerprint"`
	CreatedSeq  int64    `json:"created_seq"`
	Events      int      `json:"events"`
}

// SaveRun records a run: the script reference it was played from, the
// answers submitted and its trace. The fingerprint is computed from events.
// The run and its events are written in one transaction.
func (s *Store) SaveRun(ctx context.Context, script string, answers []string, events []trace.Event) (*Run, error) {
	fingerprint, err := trace.Fingerprint(events)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	answersJSON, err := marshalAnswers(answers)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("save run: next seq: %w", err)
	}

	run := &Run{
		ID:          s.ids.Generate(),
		Script:      script,
		Answers:     append([]string{}, answers...),
		Fingerprint: fingerprint,
		CreatedSeq:  seq,
		Events:      len(events),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, script, answers, fingerprint, created_seq)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Script, answersJSON, run.Fingerprint, run.CreatedSeq)
	if err != nil {
		return nil, fmt.Errorf("save run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_events (run_id, seq, at_ms, kind, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("save run: prepare events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := marshalPayload(e.Args)
		if err != nil {
			return nil, fmt.Errorf("save run: event %d: %w", e.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, e.Seq, e.AtMS, e.Call, payload); err != nil {
			return nil, fmt.Errorf("save run: event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save run: commit: %w", err)
	}
	return run, nil
}

// GetRun returns a run by id, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.script, r.answers, r.fingerprint, r.created_seq,
		       (SELECT COUNT(*) FROM run_events e WHERE e.run_id = r.id)
		FROM runs r
		WHERE r.id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run in creation order.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.script, r.answers, r.fingerprint, r.created_seq,
		       (SELECT COUNT(*) FROM run_events e WHERE e.run_id = r.id)
		FROM runs r
		ORDER BY r.created_seq ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunEvents returns the recorded trace of a run in seq order. The events
// fingerprint the same as the ones saved.
func (s *Store) RunEvents(ctx context.Context, id string) ([]trace.Event, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, at_ms, kind, payload
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	events := []trace.Event{}
	for rows.Next() {
		var (
			e       trace.Event
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.AtMS, &e.Call, &payload); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		if e.Args, err = unmarshalPayload(payload); err != nil {
			return nil, fmt.Errorf("run event %d: %w", e.Seq, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run     Run
		answers string
	)
	if err := sc.Scan(&run.ID, &run.Script, &answers, &run.Fingerprint, &run.CreatedSeq, &run.Events); err != nil {
		return nil, err
	}
	var err error
	if run.Answers, err = unmarshalAnswers(answers); err != nil {
		return nil, err
	}
	return &run, nil
}
