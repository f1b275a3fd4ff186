package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// IMAPSource opens authenticated IMAP sessions over TLS.
// It implements model.MailboxSource.
type IMAPSource struct {
	logger *slog.Logger
}

// NewIMAPSource creates an IMAP mailbox source.
func NewIMAPSource(logger *slog.Logger) *IMAPSource {
	return &IMAPSource{logger: logger}
}

// Open dials the account's IMAP server, authenticates, and selects INBOX.
// Login failures come back as *model.AuthError so the pipeline can isolate
// the failing account. The caller owns the returned session and must Close it.
func (s *IMAPSource) Open(_ context.Context, account model.Account) (model.MailboxSession, error) {
	addr := account.Host + ":" + account.Port

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(account.Address, account.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &model.AuthError{Account: account.Address, Err: err}
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	s.logger.Debug("mailbox session opened", "account", account.Address)
	return &imapSession{client: client}, nil
}

// imapSession wraps one authenticated connection with INBOX selected.
type imapSession struct {
	client *imapclient.Client
}

// MessageIDs returns all INBOX UIDs, most recent first. UID order tracks
// arrival order, which is the reverse-chronological sequence the scan walks.
func (s *imapSession) MessageIDs(_ context.Context) ([]uint32, error) {
	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()

	// Server returns ascending UIDs; reverse for newest-first iteration.
	ids := make([]uint32, len(uids))
	for i, uid := range uids {
		ids[len(uids)-1-i] = uint32(uid)
	}
	return ids, nil
}

// Fetch retrieves one message with BODY.PEEK so the scan never flips read flags.
func (s *imapSession) Fetch(_ context.Context, uid uint32) (model.RawMessage, error) {
	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return model.RawMessage{}, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return model.RawMessage{}, fmt.Errorf("collecting message data: %w", err)
	}

	raw := model.RawMessage{}
	if buf.Envelope != nil {
		raw.Subject = buf.Envelope.Subject
		raw.Date = buf.Envelope.Date
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				raw.Sender = from.Name
			} else {
				raw.Sender = from.Addr()
			}
		}
	}

	if rawBody := buf.FindBodySection(bodySection); rawBody != nil {
		raw.Body = extractText(rawBody)
	}

	return raw, nil
}

// Close logs out and drops the connection.
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
