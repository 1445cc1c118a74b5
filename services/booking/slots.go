package booking

import (
	"context"
	"strings"

	"slotbook/models"
	"slotbook/services/calendar"
)

// ListSlots renders the slot board for date as seen by userID, which may be
// empty for anonymous callers. PENDING holds past their deadline count as free.
func (s *DefaultReservationService) ListSlots(ctx context.Context, date, userID string) ([]models.SlotView, error) {
	userID = strings.TrimSpace(userID)
	if date == "" {
		return nil, models.NewValidationError("date is required")
	}
	if _, err := calendar.ParseDate(date); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	active, err := s.repo.ListActiveForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bySlot := make(map[string]*models.Reservation, len(active))
	for i := range active {
		r := &active[i]
		if r.IsExpired(now) {
			continue
		}
		bySlot[r.Time] = r
	}

	labels := calendar.Slots(date)
	out := make([]models.SlotView, 0, len(labels))
	for _, label := range labels {
		view := models.SlotView{Time: label, Status: models.SlotAvailable}
		if r, ok := bySlot[label]; ok {
			view.Status = slotStatusFor(r, userID)
			if userID != "" && r.UserID == userID {
				id := r.ID
				view.BookingID = &id
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func slotStatusFor(r *models.Reservation, userID string) models.SlotStatus {
	if userID == "" || r.UserID != userID {
		return models.SlotBookedByOthers
	}
	if r.Status == models.StatusConfirmed {
		return models.SlotBookedByMe
	}
	return models.SlotPaymentPending
}
