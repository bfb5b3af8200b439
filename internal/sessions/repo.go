package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
	"github.com/aryasetia/fitmon/internal/workouts"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repo) Exists(ctx context.Context, sessionID string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.exists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var found bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE session_id = $1);`,
		sessionID,
	).Scan(&found)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Create inserts a new session. Creation is race safe: two concurrent
// submissions for the same new session id result in exactly one row.
func (r *Repo) Create(ctx context.Context, session Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", session.SessionID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO sessions
				(session_id, user_id, dumbbell_weight, start_time, total_reps, total_sets, total_calories, avg_form_score)
				VALUES ($1, $2, $3, $4, 0, 0, 0, 0)
			ON CONFLICT (session_id) DO NOTHING;`,
		session.SessionID, session.UserID, session.Weight, session.StartTime,
	)
	return err
}

func (r *Repo) Get(ctx context.Context, sessionID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var s Session
	err = r.db.QueryRow(
		ctx,
		`SELECT session_id, user_id, dumbbell_weight, start_time, end_time, total_reps, total_sets, total_calories, avg_form_score
			FROM sessions WHERE session_id = $1;`,
		sessionID,
	).Scan(
		&s.SessionID, &s.UserID, &s.Weight, &s.StartTime, &s.EndTime,
		&s.TotalReps, &s.TotalSets, &s.TotalCalories, &s.AvgFormScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// RecomputeAggregates re-derives the four cached totals from the
// session's current entries, inside one transaction so a reader never
// observes a half-updated session.
func (r *Repo) RecomputeAggregates(ctx context.Context, sessionID string) (_ *Aggregates, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.recomputeAggregates")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	agg, err := r.recomputeTx(ctx, tx, sessionID, nil)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// End stamps the session end time and writes the final aggregates in
// the same transaction.
func (r *Repo) End(ctx context.Context, sessionID string, endTime time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.end")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = r.recomputeTx(ctx, tx, sessionID, &endTime); err != nil {
		return nil, err
	}

	return r.getTx(ctx, tx, sessionID)
}

func (r *Repo) recomputeTx(ctx context.Context, tx pgx.Tx, sessionID string, endTime *time.Time) (*Aggregates, error) {
	rows, err := tx.Query(
		ctx,
		`SELECT id, session_id, weight, reps, sets, duration, calories, form_score, timestamp
			FROM workout_data
			WHERE session_id = $1;`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}

	var entries []workouts.Entry
	for rows.Next() {
		var e workouts.Entry
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Weight, &e.Reps, &e.Sets,
			&e.Duration, &e.Calories, &e.FormScore, &e.Timestamp,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	agg := Recompute(entries)

	var tag pgconn.CommandTag
	if endTime != nil {
		tag, err = tx.Exec(
			ctx,
			`UPDATE sessions
				SET total_reps = $1, total_sets = $2, total_calories = $3, avg_form_score = $4, end_time = $5
				WHERE session_id = $6;`,
			agg.TotalReps, agg.TotalSets, agg.TotalCalories, agg.AvgFormScore, *endTime, sessionID,
		)
	} else {
		tag, err = tx.Exec(
			ctx,
			`UPDATE sessions
				SET total_reps = $1, total_sets = $2, total_calories = $3, avg_form_score = $4
				WHERE session_id = $5;`,
			agg.TotalReps, agg.TotalSets, agg.TotalCalories, agg.AvgFormScore, sessionID,
		)
	}
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSessionNotFound
	}

	return &agg, nil
}

func (r *Repo) getTx(ctx context.Context, tx pgx.Tx, sessionID string) (*Session, error) {
	var s Session
	err := tx.QueryRow(
		ctx,
		`SELECT session_id, user_id, dumbbell_weight, start_time, end_time, total_reps, total_sets, total_calories, avg_form_score
			FROM sessions WHERE session_id = $1;`,
		sessionID,
	).Scan(
		&s.SessionID, &s.UserID, &s.Weight, &s.StartTime, &s.EndTime,
		&s.TotalReps, &s.TotalSets, &s.TotalCalories, &s.AvgFormScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListForUser returns a user's sessions in the given time range, each
// with its entries nested, newest session first.
func (r *Repo) ListForUser(ctx context.Context, userID int, from, to time.Time) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT session_id, user_id, dumbbell_weight, start_time, end_time, total_reps, total_sets, total_calories, avg_form_score
			FROM sessions
			WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
			ORDER BY start_time DESC;`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}

	var sessions []Session
	sessionIndex := make(map[string]int)
	for rows.Next() {
		var s Session
		if err := rows.Scan(
			&s.SessionID, &s.UserID, &s.Weight, &s.StartTime, &s.EndTime,
			&s.TotalReps, &s.TotalSets, &s.TotalCalories, &s.AvgFormScore,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sessionIndex[s.SessionID] = len(sessions)
		sessions = append(sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		return nil, nil
	}

	entryRows, err := r.db.Query(
		ctx,
		`SELECT w.id, w.session_id, w.weight, w.reps, w.sets, w.duration, w.calories, w.form_score, w.timestamp
			FROM workout_data w
			JOIN sessions s ON s.session_id = w.session_id
			WHERE s.user_id = $1 AND s.start_time >= $2 AND s.start_time <= $3
			ORDER BY w.timestamp;`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var e workouts.Entry
		if err := entryRows.Scan(
			&e.ID, &e.SessionID, &e.Weight, &e.Reps, &e.Sets,
			&e.Duration, &e.Calories, &e.FormScore, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if i, ok := sessionIndex[e.SessionID]; ok {
			sessions[i].Entries = append(sessions[i].Entries, e)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// WorkoutDatesForUser returns the distinct calendar dates on which the
// user logged anything, newest first.
func (r *Repo) WorkoutDatesForUser(ctx context.Context, userID int) (_ []time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.workoutDatesForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT date_trunc('day', w.timestamp) AS day
			FROM workout_data w
			JOIN sessions s ON s.session_id = w.session_id
			WHERE s.user_id = $1
			ORDER BY day DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}
