package models

// SlotStatus describes a slot from the point of view of the requesting user.
type SlotStatus string

const (
	SlotAvailable      SlotStatus = "AVAILABLE"
	SlotBookedByOthers SlotStatus = "BOOKED_BY_OTHERS"
	SlotBookedByMe     SlotStatus = "BOOKED_BY_ME"
	SlotPaymentPending SlotStatus = "PAYMENT_PENDING"
)

// SlotView is one row of the slot board for a date.
// BookingID is only populated for the requesting user's own reservation.
type SlotView struct {
	Time      string     `json:"time"`
	Status    SlotStatus `json:"status"`
	BookingID *string    `json:"bookingId"`
}
