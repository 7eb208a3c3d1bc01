package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
)

// Client wraps one authenticated IMAP connection for a single user's sync
// pass; it is not reused across ticks.
type Client struct {
	conn   *imapclient.Client
	folder string
}

// Connect dials host:port over TLS with a bounded timeout, authenticates
// with accessToken (Gmail XOAUTH2) when non-empty, otherwise with
// cfg.ImapUser/cfg.Password, and selects cfg.Folder.
func Connect(ctx context.Context, cfg Config, accessToken string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: defaultConnectTimeout}
	tlsConn, err := tls.DialWithDialer(dialer, "tcp", addr, nil)
	if err != nil {
		return nil, fmt.Errorf("email: dial %s: %w", addr, err)
	}
	conn := imapclient.New(tlsConn, nil)

	if err := authenticate(ctx, conn, cfg, accessToken); err != nil {
		_ = conn.Close()
		return nil, err
	}

	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	if _, err := conn.Select(folder, nil).Wait(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("email: select %q: %w", folder, err)
	}

	return &Client{conn: conn, folder: folder}, nil
}

func authenticate(ctx context.Context, conn *imapclient.Client, cfg Config, accessToken string) error {
	if accessToken != "" {
		client := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: cfg.ImapUser,
			Token:    accessToken,
		})
		return conn.Authenticate(client)
	}
	return conn.Login(cfg.ImapUser, cfg.Password).Wait()
}

// Close logs out and releases the connection.
func (c *Client) Close() error {
	_, err := c.conn.Logout().Wait()
	closeErr := c.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// FetchUnread iterates 1:* in the selected folder, skips messages already
// marked \Seen, decodes each into an Item, and returns the list. A
// non-existent folder never reaches this method: Connect's Select fails
// for it, and the scheduler reports that error as a failed per-user sync,
// not as an empty list.
func (c *Client) FetchUnread(ctx context.Context) ([]Item, error) {
	seqSet := imap.SeqSetNum()
	seqSet.AddRange(1, 0) // 1:* — 0 denotes the open-ended upper bound

	fetchOptions := &imap.FetchOptions{
		Envelope: true,
		UID:      true,
		Flags:    true,
		BodySection: []*imap.FetchItemBodySection{
			{Specifier: imap.PartSpecifierNone},
		},
	}

	cmd := c.conn.Fetch(seqSet, fetchOptions)
	defer cmd.Close()

	var items []Item
	for {
		msg := cmd.Next()
		if msg == nil {
			break
		}
		item, skip, err := decodeMessage(msg, c.folder)
		if err != nil {
			continue // malformed message: best-effort, skip it
		}
		if skip {
			continue
		}
		items = append(items, item)
	}
	if err := cmd.Close(); err != nil {
		return items, fmt.Errorf("email: fetch: %w", err)
	}
	return items, nil
}

func decodeMessage(msg *imapclient.FetchMessageData, folder string) (Item, bool, error) {
	var (
		uid      imap.UID
		envelope *imap.Envelope
		seen     bool
		raw      []byte
	)
	for {
		item := msg.Next()
		if item == nil {
			break
		}
		switch data := item.(type) {
		case imapclient.FetchItemDataUID:
			uid = data.UID
		case imapclient.FetchItemDataEnvelope:
			envelope = data.Envelope
		case imapclient.FetchItemDataFlags:
			for _, f := range data.Flags {
				if f == imap.FlagSeen {
					seen = true
				}
			}
		case imapclient.FetchItemDataBodySection:
			b, err := io.ReadAll(data.Literal)
			if err == nil {
				raw = b
			}
		}
	}
	if seen {
		return Item{}, true, nil
	}
	if envelope == nil {
		return Item{}, false, fmt.Errorf("email: message %d has no envelope", uid)
	}

	plain := extractMIMEPart(string(raw), "text/plain")
	html := extractMIMEPart(string(raw), "text/html")
	body := decodeBody(decodeQuotedPrintable(plain), decodeQuotedPrintable(html))

	var from, fromName string
	if len(envelope.From) > 0 {
		from = envelope.From[0].Mailbox + "@" + envelope.From[0].Host
		fromName = envelope.From[0].Name
	}

	return Item{
		Subject:      envelope.Subject,
		Body:         body,
		From:         from,
		FromName:     fromName,
		ReceivedDate: envelope.Date,
		MessageID:    envelope.MessageID,
		UID:          uint32(uid),
		Folder:       folder,
	}, false, nil
}

// MarkAsRead adds \Seen to the given UIDs.
func (c *Client) MarkAsRead(ctx context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	uidSet := toUIDSet(uids)
	storeFlags := &imap.StoreFlags{Op: imap.StoreFlagsAdd, Flags: []imap.Flag{imap.FlagSeen}}
	return c.conn.Store(uidSet, storeFlags, nil).Close()
}

// MoveToProcessed ensures the destination folder exists, then moves uids
// into it, reporting per-UID success/failure.
func (c *Client) MoveToProcessed(ctx context.Context, cfg Config, uids []uint32) MoveResult {
	dest := cfg.ProcessedFolder
	if dest == "" {
		dest = DefaultProcessedFolder
	}
	_, _ = c.conn.Create(dest, nil).Wait() // idempotent: ignore "already exists"

	result := MoveResult{}
	for _, uid := range uids {
		uidSet := toUIDSet([]uint32{uid})
		if _, err := c.conn.Move(uidSet, dest).Wait(); err != nil {
			result.Failed = append(result.Failed, uid)
			continue
		}
		result.Moved = append(result.Moved, uid)
	}
	return result
}

func toUIDSet(uids []uint32) imap.UIDSet {
	set := imap.UIDSet{}
	for _, u := range uids {
		set.AddNum(imap.UID(u))
	}
	return set
}
