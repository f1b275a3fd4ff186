package model

import (
	"context"
	"time"
)

// RawMessage is one mailbox entry as handed to the classifier.
type RawMessage struct {
	Date    time.Time // timezone-aware per RFC 5322
	Subject string
	Sender  string
	Body    string
}

// Classification is the structured judgment for one message. Company,
// Position and Status are meaningful only when IsJobApplication is true;
// empty strings mean the classifier could not extract the field.
type Classification struct {
	IsJobApplication bool
	Company          string
	Position         string
	Status           Status // empty when unspecified
}

// Classifier maps an email to a Classification. Implementations short-circuit
// internally (a cheap subject-only screen before the full-content call) and
// degrade malformed upstream responses to IsJobApplication=false rather than
// returning an error; errors are reserved for transport failures.
type Classifier interface {
	Classify(ctx context.Context, msg RawMessage) (Classification, error)
}

// Account identifies one mailbox to scan.
type Account struct {
	Address  string // also the value recorded in ApplicationRecord.Account
	Host     string
	Port     string
	Password string
}

// MailboxSession is an open, authenticated connection to one mailbox.
type MailboxSession interface {
	// MessageIDs returns message UIDs in reverse-chronological order
	// (most recent first).
	MessageIDs(ctx context.Context) ([]uint32, error)
	Fetch(ctx context.Context, uid uint32) (RawMessage, error)
	Close() error
}

// MailboxSource opens sessions. Login failures are reported as *AuthError.
type MailboxSource interface {
	Open(ctx context.Context, account Account) (MailboxSession, error)
}
