// internal/service/send_initiator.go
package service

import (
    "log"
    "time"

    appErrors "github.com/shulgold/newsletter-engine/internal/errors"
    "github.com/shulgold/newsletter-engine/internal/model"
    "github.com/shulgold/newsletter-engine/internal/queue"
    "github.com/shulgold/newsletter-engine/internal/repository"
)

type SendInitiator struct {
    NewsletterRepo repository.NewsletterRepositoryInterface
    SegmentRepo    repository.SegmentRepositoryInterface
    SendRepo       repository.SendRepositoryInterface
    Resolver       *SegmentResolver
    Queue          queue.Publisher
}

type InitiateResult struct {
    SendID          int    `json:"send_id"`
    TotalRecipients int    `json:"total_recipients"`
    Status          string `json:"status"`
}

// Initiate resolves the audience, snapshots it as a send plus one recipient
// log per subscriber, and flips the newsletter to scheduled or sending.
// All-or-nothing: on any failure no send or recipient rows remain.
func (s *SendInitiator) Initiate(newsletterID int, segmentID *int, scheduleAt *time.Time) (*InitiateResult, error) {
    newsletter, err := s.NewsletterRepo.GetByID(newsletterID)
    if err != nil {
        return nil, err
    }

    // scheduled counts as dispatched: the newsletter already owns a
    // non-terminal send and a second snapshot would double-deliver.
    if newsletter.Status == "scheduled" || newsletter.Status == "sending" || newsletter.Status == "sent" {
        return nil, appErrors.NewAlreadyDispatched(newsletterID, newsletter.Status)
    }

    var segment *model.Segment
    if segmentID != nil {
        segment, err = s.SegmentRepo.GetByID(*segmentID)
        if err != nil {
            return nil, err
        }
    }

    recipients, err := s.Resolver.Resolve(segment)
    if err != nil {
        return nil, err
    }
    if len(recipients) == 0 {
        return nil, appErrors.NewEmptyAudience(newsletterID)
    }

    send := &model.Send{
        NewsletterID: newsletterID,
        SegmentID:    segmentID,
        ScheduledAt:  scheduleAt,
    }
    if err := s.SendRepo.CreateWithRecipients(send, recipients); err != nil {
        return nil, err
    }

    // The processor respects scheduled_at; the initiator only sets the
    // newsletter status.
    newsletterStatus := "sending"
    if scheduleAt != nil && scheduleAt.After(time.Now()) {
        newsletterStatus = "scheduled"
    }
    if err := s.NewsletterRepo.UpdateStatus(newsletterID, newsletterStatus); err != nil {
        return nil, err
    }

    if newsletterStatus == "sending" && s.Queue != nil {
        if err := s.Queue.PublishSendInitiated(send.ID); err != nil {
            log.Println("⚠️ failed to publish send wakeup:", err)
        }
    }

    log.Printf("📬 Send %d created for newsletter %d with %d recipients (%s)\n",
        send.ID, newsletterID, send.TotalRecipients, newsletterStatus)

    return &InitiateResult{
        SendID:          send.ID,
        TotalRecipients: send.TotalRecipients,
        Status:          newsletterStatus,
    }, nil
}
