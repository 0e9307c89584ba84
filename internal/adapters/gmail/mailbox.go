package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/mailbox"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// User is the mailbox owner; "me" for the authorized account.
	User string
}

// Mailbox reads the import inbox through the Gmail API.
type Mailbox struct {
	svc  *gmailapi.Service
	user string
}

// NewMailbox authorizes with a stored refresh token; access tokens are refreshed transparently.
func NewMailbox(ctx context.Context, cred Credentials) (*Mailbox, error) {
	if cred.ClientID == "" || cred.ClientSecret == "" || cred.RefreshToken == "" {
		return nil, errors.New("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN are required")
	}
	oc := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.GmailModifyScope},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return NewMailboxWithService(svc, cred.User), nil
}

func NewMailboxWithService(svc *gmailapi.Service, user string) *Mailbox {
	if user == "" {
		user = "me"
	}
	return &Mailbox{svc: svc, user: user}
}

func (m *Mailbox) ListUnread(ctx context.Context, max int) ([]string, error) {
	resp, err := m.svc.Users.Messages.List(m.user).Q("is:unread").MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

func (m *Mailbox) Get(ctx context.Context, id string) (mailbox.Message, error) {
	msg, err := m.svc.Users.Messages.Get(m.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return mailbox.Message{}, mailbox.ErrNotFound
		}
		return mailbox.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	out := mailbox.Message{ID: msg.Id}
	if msg.Payload == nil {
		return out, nil
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}
	walkParts(msg.Payload, &out)
	return out, nil
}

func (m *Mailbox) MarkRead(ctx context.Context, id string) error {
	_, err := m.svc.Users.Messages.Modify(m.user, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return mailbox.ErrNotFound
		}
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	return nil
}

// walkParts keeps the first text/plain and the first text/html body found depth-first.
func walkParts(p *gmailapi.MessagePart, out *mailbox.Message) {
	if p == nil {
		return
	}
	mt := strings.ToLower(p.MimeType)
	if p.Body != nil && p.Body.Data != "" && p.Filename == "" {
		switch {
		case strings.HasPrefix(mt, "text/plain") && out.PlainText == "":
			out.PlainText = decodeBody(p.Body.Data)
		case strings.HasPrefix(mt, "text/html") && out.HTML == "":
			out.HTML = decodeBody(p.Body.Data)
		}
	}
	for _, child := range p.Parts {
		walkParts(child, out)
	}
}

// decodeBody accepts padded and unpadded base64url.
func decodeBody(s string) string {
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return string(b)
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return string(b)
	}
	return ""
}

func isNotFound(err error) bool {
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == http.StatusNotFound
}
