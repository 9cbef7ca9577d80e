package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/models"
)

// SendReservationDecision notifies the requester that an officer approved or
// rejected their reservation. A nil sender or a requester without an email
// address skips sending without error.
func SendReservationDecision(ctx context.Context, sender Sender, room models.Room, res models.Reservation) error {
	if sender == nil || res.RequesterEmail == "" {
		return nil
	}

	var subject, verdict string
	switch res.Status {
	case availability.StatusApproved:
		subject = fmt.Sprintf("Reservation approved: %s on %s", room.Name, res.Date)
		verdict = "has been approved"
	case availability.StatusRejected:
		subject = fmt.Sprintf("Reservation rejected: %s on %s", room.Name, res.Date)
		verdict = "has been rejected"
	default:
		return fmt.Errorf("no notification defined for status %q", res.Status)
	}

	body := fmt.Sprintf(
		"Dear %s,\n\nYour reservation of %s (%s) on %s from %s to %s %s.\n",
		res.RequesterName, room.Name, room.Location, res.Date, res.StartTime, res.EndTime, verdict,
	)
	if res.Purpose != "" {
		body += fmt.Sprintf("\nPurpose: %s\n", res.Purpose)
	}

	if err := sender.Send(ctx, res.RequesterEmail, subject, body); err != nil {
		return fmt.Errorf("send decision email: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", res.ID).
		Str("status", string(res.Status)).
		Msg("Reservation decision email sent")
	return nil
}
