// internal/model/subscriber.go
package model

import (
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "time"
)

// InterestFlags maps a topic name ("newsletter", "kosherAlerts", ...) to
// whether the subscriber opted in. Stored as jsonb.
type InterestFlags map[string]bool

func (f InterestFlags) Value() (driver.Value, error) {
    if f == nil {
        return []byte("{}"), nil
    }
    return json.Marshal(f)
}

func (f *InterestFlags) Scan(src interface{}) error {
    if src == nil {
        *f = InterestFlags{}
        return nil
    }
    b, ok := src.([]byte)
    if !ok {
        return fmt.Errorf("cannot scan %T into InterestFlags", src)
    }
    return json.Unmarshal(b, f)
}

type Subscriber struct {
    ID               int           `db:"id" json:"id"`
    UserID           *int          `db:"user_id" json:"user_id,omitempty"` // nil for guest signups
    Email            string        `db:"email" json:"email"`
    Active           bool          `db:"active" json:"active"`
    Unsubscribed     bool          `db:"unsubscribed" json:"unsubscribed"`
    UnsubscribedAt   *time.Time    `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
    UnsubscribeToken string        `db:"unsubscribe_token" json:"-"`
    Interests        InterestFlags `db:"interests" json:"interests"`
}
