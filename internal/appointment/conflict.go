package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindConflict returns the first appointment in booked that still blocks its slot and
// overlaps slot. exclude skips the appointment being moved.
func FindConflict(booked []Appointment, slot Slot, exclude uuid.UUID) *Appointment {
	for i := range booked {
		a := &booked[i]
		if a.ID == exclude || !a.status.Blocks() {
			continue
		}
		if slot.Overlaps(a.slot) {
			return a
		}
	}
	return nil
}

// CheckSlot fails with ErrSlotUnavailable when slot collides with a blocking appointment
// of the clinician on date.
func CheckSlot(ctx context.Context, r DayReader, clinicianID uuid.UUID, date time.Time, slot Slot, exclude uuid.UUID) error {
	booked, err := r.ListBlockingForDay(ctx, clinicianID, date)
	if err != nil {
		return fmt.Errorf("list booked appointments: %w", err)
	}
	if c := FindConflict(booked, slot, exclude); c != nil {
		return SlotUnavailable(date.Format(time.DateOnly), slot,
			fmt.Sprintf("overlaps existing appointment %s", c.slot))
	}
	return nil
}
