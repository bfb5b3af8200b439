package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/tracing"

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

func (r *Repo) Create(ctx context.Context, name, rfidTag string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user := User{
		Name:      name,
		RFIDTag:   rfidTag,
		CreatedAt: time.Now(),
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users (name, rfid_tag, created_at)
				VALUES ($1, $2, $3)
			RETURNING id;`,
		user.Name, user.RFIDTag, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique violation on rfid_tag
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrRFIDTagExists
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	var user User
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, rfid_tag, created_at FROM users WHERE id = $1;`,
		id,
	).Scan(&user.ID, &user.Name, &user.RFIDTag, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repo) GetByRFID(ctx context.Context, rfidTag string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByRFID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var user User
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, rfid_tag, created_at FROM users WHERE rfid_tag = $1;`,
		rfidTag,
	).Scan(&user.ID, &user.Name, &user.RFIDTag, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// LifetimeStats folds a user's whole history into the profile totals.
func (r *Repo) LifetimeStats(ctx context.Context, userID int) (_ *LifetimeStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.lifetimeStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	var stats LifetimeStats
	err = r.db.QueryRow(
		ctx,
		`SELECT
				COUNT(DISTINCT s.session_id),
				COUNT(DISTINCT w.id),
				COALESCE(SUM(s.dumbbell_weight * w.reps * w.sets), 0),
				COALESCE(SUM(w.reps * w.sets), 0),
				COALESCE(SUM(w.sets), 0),
				COALESCE(SUM(w.calories), 0),
				COALESCE(SUM(w.duration), 0)
			FROM sessions s
			LEFT JOIN workout_data w ON w.session_id = s.session_id
			WHERE s.user_id = $1;`,
		userID,
	).Scan(
		&stats.TotalSessions, &stats.TotalWorkouts, &stats.TotalWeight,
		&stats.TotalReps, &stats.TotalSets,
		&stats.TotalCalories, &stats.TotalMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("lifetime stats query: %w", err)
	}
	return &stats, nil
}
