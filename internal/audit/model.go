// Package audit records an append-only trail of login, upload, edit, and
// delete events, spooling to local disk when the primary sink is
// unavailable.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a single audit log entry: who did what to which path, and
// whether it succeeded.
type Event struct {
	EventID    uuid.UUID       `json:"event_id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	TargetPath string          `json:"target_path,omitempty"`
	Result     string          `json:"result"`
	ReasonCode string          `json:"reason_code,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	ClientIP   string          `json:"client_ip,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const (
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionUpload       = "upload"
	ActionEdit         = "edit"
	ActionDelete       = "delete"
	ActionStreamStart  = "stream.start"
	ActionStreamAbort  = "stream.abort"
	ActionStreamFinish = "stream.finish"
)
