package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one admitted reservation awaiting delivery to the lending
// workflow.
type Item struct {
	ID        string          `json:"id"`
	MemberID  string          `json:"member_id"`
	Data      json.RawMessage `json:"data"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
