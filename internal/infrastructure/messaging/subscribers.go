package messaging

import (
	"log/slog"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// RegisterLoggingSubscribers attaches structured-log handlers for the
// progress and generation events the sync engine emits. Rollbacks are
// logged at Warn so failed persists stand out in the log stream.
func RegisterLoggingSubscribers(bus shared.EventSubscriber, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := bus.Subscribe(shared.EventTaskToggled, func(event shared.Event) error {
		logger.Info("task toggled",
			"user_id", event.AggregateID(),
			"payload", event.Payload(),
		)
		return nil
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(shared.EventWeekCompleted, func(event shared.Event) error {
		logger.Info("week completed",
			"user_id", event.AggregateID(),
			"payload", event.Payload(),
		)
		return nil
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(shared.EventProgressRevert, func(event shared.Event) error {
		logger.Warn("progress rolled back",
			"user_id", event.AggregateID(),
			"payload", event.Payload(),
		)
		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(shared.EventRoadmapGenerated, func(event shared.Event) error {
		logger.Info("roadmap generated",
			"user_id", event.AggregateID(),
			"payload", event.Payload(),
		)
		return nil
	})
}

// ContentInvalidator clears cached lesson content. Satisfied by
// contentcache.Cache.
type ContentInvalidator interface {
	Clear()
}

// RegisterCacheInvalidation clears the lesson content cache whenever a new
// roadmap is generated. Cached explanations reference week numbers and
// contexts from the old roadmap and would be stale against the new one.
func RegisterCacheInvalidation(bus shared.EventSubscriber, cache ContentInvalidator, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	return bus.Subscribe(shared.EventRoadmapGenerated, func(event shared.Event) error {
		cache.Clear()
		logger.Info("lesson content cache cleared after roadmap generation",
			"user_id", event.AggregateID(),
		)
		return nil
	})
}
