package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilitySource supplies a clinician's published weekly hours.
type AvailabilitySource interface {
	WeeklyAvailability(ctx context.Context, clinicianID uuid.UUID) ([]AvailabilityWindow, error)
}

type AvailabilityIndex struct {
	source AvailabilitySource
}

func NewAvailabilityIndex(source AvailabilitySource) *AvailabilityIndex {
	return &AvailabilityIndex{source: source}
}

// IsWithinPublishedHours reports whether slot fits inside one published range for the
// weekday of date. No published hours for that day yields false.
func (ix *AvailabilityIndex) IsWithinPublishedHours(ctx context.Context, clinicianID uuid.UUID, date time.Time, slot Slot) (bool, error) {
	windows, err := ix.source.WeeklyAvailability(ctx, clinicianID)
	if err != nil {
		return false, fmt.Errorf("load availability: %w", err)
	}
	day := date.Weekday()
	for _, w := range windows {
		if w.Weekday == day && slot.Within(w.Slot) {
			return true, nil
		}
	}
	return false, nil
}
