package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/mq"
	"github.com/uni-magazine/apiserver/types"
)

// EventPublisher publishes a domain event to the broker.
type EventPublisher interface {
	Emit(ctx context.Context, event mq.Event) (string, error)
}

// Events emits domain events best effort. A nil publisher disables emission;
// broker failures are logged and never surface to the request.
type Events struct {
	publisher EventPublisher
	logger    *zap.Logger
}

func NewEvents(publisher EventPublisher, logger *zap.Logger) *Events {
	return &Events{publisher: publisher, logger: logger}
}

// ContributionSubmitted announces a new submission.
func (e *Events) ContributionSubmitted(ctx context.Context, c types.Contribution) {
	e.emit(ctx, mq.Event{
		Name: mq.EventContributionSubmitted,
		Payload: map[string]any{
			"contribution_id":  c.ID,
			"student_id":       c.StudentID,
			"faculty_id":       c.FacultyID,
			"academic_year_id": c.AcademicYearID,
		},
	})
}

// ContributionStatusChanged announces a selection decision.
func (e *Events) ContributionStatusChanged(ctx context.Context, c types.Contribution, status string) {
	e.emit(ctx, mq.Event{
		Name: mq.EventContributionStatusChanged,
		Payload: map[string]any{
			"contribution_id": c.ID,
			"student_id":      c.StudentID,
			"faculty_id":      c.FacultyID,
			"status":          status,
		},
	})
}

func (e *Events) emit(ctx context.Context, event mq.Event) {
	if e == nil || e.publisher == nil {
		return
	}
	if _, err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.Warn("event publish failed",
			zap.String("event", event.Name),
			zap.Error(err),
		)
	}
}
