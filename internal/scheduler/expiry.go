package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/db"
)

const expiryJobTimeout = 2 * time.Minute

// RegisterExpiryJob schedules the nightly sweep that rejects pending
// reservations whose dates have already passed. A request nobody decided on
// before its day arrived can never be approved retroactively, so leaving it
// pending only clutters the officer queue and the requester's list.
func RegisterExpiryJob(database *db.DB) error {
	if database == nil {
		return fmt.Errorf("expiry job requires database")
	}

	jobName := "reservation_expiry"
	cronExpr := "0 3 * * *"
	jobLogger := log.With().
		Str("component", "reservation_expiry_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expiryJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		expired, err := ExpireStalePending(ctx, database)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to expire stale pending reservations")
			return
		}
		if expired > 0 {
			jobLogger.Info().Int64("expired", expired).Msg("Stale pending reservations rejected")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add reservation expiry job: %w", err)
	}

	jobLogger.Info().Msg("Reservation expiry job registered")
	return nil
}

// ExpireStalePending rejects every pending reservation dated before today and
// returns the number of rows changed.
func ExpireStalePending(ctx context.Context, database *db.DB) (int64, error) {
	return database.Queries.ExpirePendingBefore(ctx, availability.Today().String())
}
