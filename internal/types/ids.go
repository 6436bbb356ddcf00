// internal/types/ids.go
package types

import (
	"fmt"

	"github.com/google/uuid"
)

type AccountID string
type ItemID string
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ActionKey builds the dedup key for one (kind, account, item) action.
// A key recorded after a successful action is never re-attempted.
func ActionKey(kind ActionKind, account AccountID, item ItemID) string {
	return fmt.Sprintf("%s_%s_%s", kind, account, item)
}
