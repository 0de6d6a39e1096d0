// internal/model/segment.go
package model

import "time"

// Segment is a named, reusable audience filter: a conjunction of required
// interest-flag values. Flags absent from the filter impose no constraint.
type Segment struct {
    ID        int           `db:"id" json:"id"`
    Name      string        `db:"name" json:"name"`
    Filter    InterestFlags `db:"filter" json:"filter"`
    CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
