package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type admissionRecord struct {
	bun.BaseModel `bun:"table:receiver_admissions,alias:ra"`

	ID         string         `bun:"id,pk"`
	Receiver   string         `bun:"receiver,notnull"`
	InstanceID string         `bun:"instance_id"`
	Decision   string         `bun:"decision,notnull"`
	Events     []string       `bun:"events,type:jsonb,notnull"`
	StatusCode int            `bun:"status_code,notnull"`
	Reason     string         `bun:"reason"`
	Stage      string         `bun:"stage"`
	Method     string         `bun:"method"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
