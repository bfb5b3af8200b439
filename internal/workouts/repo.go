package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) InsertEntry(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.insertEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout_data
				(session_id, weight, reps, sets, duration, calories, form_score, timestamp)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
		entry.SessionID, entry.Weight, entry.Reps, entry.Sets,
		entry.Duration, entry.Calories, entry.FormScore, entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("entry.id", id))

	entry.ID = id
	return &entry, nil
}

// FindDuplicate looks for an entry in the same session with the same reps
// and sets whose timestamp lies within the given window of ts. Returns
// ErrEntryNotFound when there is no such entry.
func (r *Repo) FindDuplicate(
	ctx context.Context,
	sessionID string,
	reps, sets int,
	ts time.Time,
	window time.Duration,
) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.findDuplicate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, session_id, weight, reps, sets, duration, calories, form_score, timestamp
			FROM workout_data
			WHERE session_id = $1 AND reps = $2 AND sets = $3
				AND abs(extract(epoch FROM (timestamp - $4::timestamptz))) <= $5
			ORDER BY timestamp DESC
			LIMIT 1;`,
		sessionID, reps, sets, ts, window.Seconds(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := rows2entries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}
	return &entries[0], nil
}

func (r *Repo) GetEntry(ctx context.Context, id int) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, session_id, weight, reps, sets, duration, calories, form_score, timestamp
			FROM workout_data WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := rows2entries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}
	return &entries[0], nil
}

func (r *Repo) ListEntries(ctx context.Context, sessionID string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listEntries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, session_id, weight, reps, sets, duration, calories, form_score, timestamp
			FROM workout_data
			WHERE session_id = $1
			ORDER BY timestamp;`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2entries(rows)
}

func (r *Repo) UpdateEntry(ctx context.Context, entry *Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", entry.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_data
			SET weight = $1, reps = $2, sets = $3, duration = $4, calories = $5, form_score = $6
			WHERE id = $7;`,
		entry.Weight, entry.Reps, entry.Sets, entry.Duration, entry.Calories, entry.FormScore, entry.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *Repo) DeleteEntry(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.deleteEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_data WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *Repo) InsertRep(ctx context.Context, rep Rep) (_ *Rep, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.insertRep")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO rep_data
				(session_id, rep_number, weight, angle_range, peak_acceleration, calories, rep_start, rep_end, rep_duration)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id;`,
		rep.SessionID, rep.RepNumber, rep.Weight, rep.AngleRange, rep.PeakAcceleration,
		rep.Calories, rep.StartedAt, rep.EndedAt, rep.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	rep.ID = id
	return &rep, nil
}

func (r *Repo) ListReps(ctx context.Context, sessionID string) (_ []Rep, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listReps")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, session_id, rep_number, weight, angle_range, peak_acceleration, calories, rep_start, rep_end, rep_duration
			FROM rep_data
			WHERE session_id = $1
			ORDER BY rep_number;`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []Rep
	for rows.Next() {
		var rep Rep
		if err := rows.Scan(
			&rep.ID, &rep.SessionID, &rep.RepNumber, &rep.Weight,
			&rep.AngleRange, &rep.PeakAcceleration, &rep.Calories,
			&rep.StartedAt, &rep.EndedAt, &rep.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		reps = append(reps, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reps, nil
}

func rows2entries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.Weight, &entry.Reps, &entry.Sets,
			&entry.Duration, &entry.Calories, &entry.FormScore, &entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
