// internal/service/segment_resolver.go
package service

import (
    "github.com/shulgold/newsletter-engine/internal/model"
    "github.com/shulgold/newsletter-engine/internal/repository"
)

// defaultFilter is applied when a send has no explicit segment: bulk sends
// never reach subscribers who only opted into narrower topics.
var defaultFilter = model.InterestFlags{"newsletter": true}

// SegmentResolver turns an optional segment plus baseline eligibility into a
// concrete recipient list. Resolution happens once, at send creation.
type SegmentResolver struct {
    SubscriberRepo repository.SubscriberRepositoryInterface
}

func (r *SegmentResolver) Resolve(segment *model.Segment) ([]model.Subscriber, error) {
    eligible, err := r.SubscriberRepo.ListEligible()
    if err != nil {
        return nil, err
    }

    filter := defaultFilter
    if segment != nil {
        filter = segment.Filter
    }

    matched := []model.Subscriber{}
    for _, sub := range eligible {
        if MatchesFilter(sub.Interests, filter) {
            matched = append(matched, sub)
        }
    }
    return matched, nil
}

// MatchesFilter checks every flag present in the filter against the
// subscriber's interests (logical AND). A flag the subscriber never set
// counts as false.
func MatchesFilter(interests, filter model.InterestFlags) bool {
    for flag, required := range filter {
        if interests[flag] != required {
            return false
        }
    }
    return true
}
