// Package audit records account and catalog mutations for operators.
package audit

import "time"

// Action identifies what happened.
type Action string

const (
	ActionLogin          Action = "login"
	ActionAccountLinked  Action = "account_linked"
	ActionUserDeleted    Action = "user_deleted"
	ActionPronounCreated Action = "pronoun_created"
	ActionPronounDeleted Action = "pronoun_deleted"
)

// Event is one audit record. ID and OccurredAt are filled by the publisher.
type Event struct {
	ID         string
	Action     Action
	ActorID    int64
	Detail     string
	OccurredAt time.Time
}
