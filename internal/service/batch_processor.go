// internal/service/batch_processor.go
package service

import (
    "fmt"
    "log"
    "time"

    "github.com/shulgold/newsletter-engine/internal/model"
    "github.com/shulgold/newsletter-engine/internal/repository"
    "github.com/shulgold/newsletter-engine/internal/transport"
)

const (
    DefaultBatchSize    = 500
    DefaultChunkSize    = 100
    DefaultChunkDelay   = 600 * time.Millisecond
    DefaultRequeueAfter = 10 * time.Minute
)

// RunSummary is what one invocation reports back to its trigger.
type RunSummary struct {
    SendID    int    `json:"send_id,omitempty"`
    Processed int    `json:"processed"`
    Sent      int    `json:"sent"`
    Failed    int    `json:"failed"`
    Completed bool   `json:"completed"`
    Reason    string `json:"reason,omitempty"`
}

// BatchProcessor drains the active send one bounded invocation at a time.
// It holds no state between invocations; all progress lives in the store,
// so overlapping invocations cannot double-send (send claim + row claim).
type BatchProcessor struct {
    SendRepo       repository.SendRepositoryInterface
    RecipientRepo  repository.RecipientLogRepositoryInterface
    NewsletterRepo repository.NewsletterRepositoryInterface
    Sender         transport.BatchSender
    Instrumentor   *Instrumentor

    BatchSize    int           // rows drained per invocation
    ChunkSize    int           // provider batch-call limit
    ChunkDelay   time.Duration // inter-chunk rate-limit delay
    RequeueAfter time.Duration // claimed rows older than this go back to pending

    Sleep func(time.Duration) // injectable for tests
    Now   func() time.Time
}

func (p *BatchProcessor) batchSize() int {
    if p.BatchSize > 0 {
        return p.BatchSize
    }
    return DefaultBatchSize
}

func (p *BatchProcessor) chunkSize() int {
    if p.ChunkSize > 0 {
        return p.ChunkSize
    }
    return DefaultChunkSize
}

func (p *BatchProcessor) chunkDelay() time.Duration {
    if p.ChunkDelay > 0 {
        return p.ChunkDelay
    }
    return DefaultChunkDelay
}

func (p *BatchProcessor) requeueAfter() time.Duration {
    if p.RequeueAfter > 0 {
        return p.RequeueAfter
    }
    return DefaultRequeueAfter
}

func (p *BatchProcessor) sleep(d time.Duration) {
    if p.Sleep != nil {
        p.Sleep(d)
        return
    }
    time.Sleep(d)
}

func (p *BatchProcessor) now() time.Time {
    if p.Now != nil {
        return p.Now()
    }
    return time.Now()
}

// RunOnce makes forward progress on at most one send. Safe to call
// repeatedly and concurrently; an invocation that loses a claim race simply
// reports it and exits.
func (p *BatchProcessor) RunOnce() (*RunSummary, error) {
    if p.Sender == nil {
        return &RunSummary{Reason: "transport unavailable"}, nil
    }

    now := p.now()
    send, err := p.SendRepo.NextDue(now)
    if err != nil {
        return nil, err
    }
    if send == nil {
        return &RunSummary{Reason: "no pending sends"}, nil
    }

    if send.Status == "pending" {
        claimed, err := p.SendRepo.Claim(send.ID, now)
        if err != nil {
            return nil, err
        }
        if !claimed {
            return &RunSummary{SendID: send.ID, Reason: "send claimed by another invocation"}, nil
        }
        // A due scheduled send starts draining now; the newsletter leaves
        // scheduled the moment its send is claimed.
        if err := p.NewsletterRepo.UpdateStatus(send.NewsletterID, "sending"); err != nil {
            return nil, err
        }
    }

    if n, err := p.RecipientRepo.RequeueStale(send.ID, p.requeueAfter()); err != nil {
        return nil, err
    } else if n > 0 {
        log.Printf("⚠️ Requeued %d stale claimed rows for send %d\n", n, send.ID)
    }

    rows, err := p.RecipientRepo.ClaimPending(send.ID, p.batchSize())
    if err != nil {
        return nil, err
    }

    if len(rows) == 0 {
        return p.maybeComplete(send)
    }

    newsletter, err := p.NewsletterRepo.GetByID(send.NewsletterID)
    if err != nil {
        return nil, err
    }

    summary := &RunSummary{SendID: send.ID, Processed: len(rows)}
    chunkSize := p.chunkSize()

    for start := 0; start < len(rows); start += chunkSize {
        end := start + chunkSize
        if end > len(rows) {
            end = len(rows)
        }
        chunk := rows[start:end]

        sent, failed, err := p.dispatchChunk(send, newsletter, chunk)
        if err != nil {
            return summary, err
        }
        summary.Sent += sent
        summary.Failed += failed

        if end < len(rows) {
            p.sleep(p.chunkDelay())
        }
    }

    // Atomic increments: correct even when two invocations interleave.
    if err := p.SendRepo.AddCounts(send.ID, summary.Sent, summary.Failed); err != nil {
        return summary, err
    }

    log.Printf("📨 Send %d: processed %d (sent %d, failed %d)\n",
        send.ID, summary.Processed, summary.Sent, summary.Failed)

    return summary, nil
}

// dispatchChunk sends one provider-sized chunk and records every row's
// outcome. A chunk-level transport error, or a misaligned result array,
// fails the whole chunk; persistence errors abort the invocation.
func (p *BatchProcessor) dispatchChunk(send *model.Send, newsletter *model.Newsletter, chunk []model.ClaimedRecipient) (int, int, error) {
    msgs := make([]transport.Message, len(chunk))
    for i, r := range chunk {
        msgs[i] = transport.Message{
            To:             r.Email,
            Subject:        newsletter.Subject,
            HTML:           p.Instrumentor.Instrument(newsletter.BodyHTML, send.ID, r.SubscriberID),
            Text:           p.Instrumentor.PlainText(newsletter.BodyHTML, r.UnsubscribeToken),
            IdempotencyKey: r.IdempotencyKey,
        }
    }

    results, err := p.Sender.SendBatch(msgs)
    if err == nil && len(results) != len(chunk) {
        err = fmt.Errorf("provider returned %d results for %d messages", len(results), len(chunk))
    }
    if err != nil {
        log.Println("⚠️ chunk send failed:", err)
        for _, r := range chunk {
            if markErr := p.RecipientRepo.MarkFailed(r.ID, err.Error()); markErr != nil {
                return 0, 0, markErr
            }
        }
        return 0, len(chunk), nil
    }

    sent, failed := 0, 0
    sentAt := p.now()
    for i, res := range results {
        if res.MessageID != "" {
            if err := p.RecipientRepo.MarkSent(chunk[i].ID, res.MessageID, sentAt); err != nil {
                return sent, failed, err
            }
            sent++
        } else {
            reason := res.Error
            if reason == "" {
                reason = "provider rejected message"
            }
            if err := p.RecipientRepo.MarkFailed(chunk[i].ID, reason); err != nil {
                return sent, failed, err
            }
            failed++
        }
    }
    return sent, failed, nil
}

// maybeComplete marks the send completed and the newsletter sent, but only
// once no rows remain pending or claimed by any invocation.
func (p *BatchProcessor) maybeComplete(send *model.Send) (*RunSummary, error) {
    pending, claimed, err := p.RecipientRepo.RemainingCounts(send.ID)
    if err != nil {
        return nil, err
    }
    if pending > 0 || claimed > 0 {
        return &RunSummary{SendID: send.ID, Reason: "rows claimed by another invocation"}, nil
    }

    completedAt := p.now()
    if err := p.SendRepo.Complete(send.ID, completedAt); err != nil {
        return nil, err
    }
    if err := p.NewsletterRepo.MarkSent(send.NewsletterID, completedAt); err != nil {
        return nil, err
    }

    log.Printf("✅ Send %d completed, newsletter %d marked sent\n", send.ID, send.NewsletterID)
    return &RunSummary{SendID: send.ID, Completed: true, Reason: "send completed"}, nil
}
