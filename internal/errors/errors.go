// internal/errors/errors.go
package appErrors

import "fmt"

// ErrNewsletterNotFound is a sentinel error
type ErrNewsletterNotFound struct {
    NewsletterID int
}

func (e *ErrNewsletterNotFound) Error() string {
    return fmt.Sprintf("newsletter with ID %d not found", e.NewsletterID)
}

func NewNewsletterNotFound(id int) error {
    return &ErrNewsletterNotFound{NewsletterID: id}
}

// ErrAlreadyDispatched means the newsletter is already sending or sent and
// cannot be initiated again.
type ErrAlreadyDispatched struct {
    NewsletterID int
    Status       string
}

func (e *ErrAlreadyDispatched) Error() string {
    return fmt.Sprintf("newsletter %d already dispatched (status %s)", e.NewsletterID, e.Status)
}

func NewAlreadyDispatched(id int, status string) error {
    return &ErrAlreadyDispatched{NewsletterID: id, Status: status}
}

// ErrEmptyAudience means segment resolution produced zero eligible
// subscribers; no send or recipient rows were created.
type ErrEmptyAudience struct {
    NewsletterID int
}

func (e *ErrEmptyAudience) Error() string {
    return fmt.Sprintf("newsletter %d resolved to an empty audience", e.NewsletterID)
}

func NewEmptyAudience(id int) error {
    return &ErrEmptyAudience{NewsletterID: id}
}

// ErrSubscriberNotFound is a sentinel error
type ErrSubscriberNotFound struct {
    SubscriberID int
}

func (e *ErrSubscriberNotFound) Error() string {
    return fmt.Sprintf("subscriber with ID %d not found", e.SubscriberID)
}

func NewSubscriberNotFound(id int) error {
    return &ErrSubscriberNotFound{SubscriberID: id}
}

// ErrSegmentNotFound is a sentinel error
type ErrSegmentNotFound struct {
    SegmentID int
}

func (e *ErrSegmentNotFound) Error() string {
    return fmt.Sprintf("segment with ID %d not found", e.SegmentID)
}

func NewSegmentNotFound(id int) error {
    return &ErrSegmentNotFound{SegmentID: id}
}
