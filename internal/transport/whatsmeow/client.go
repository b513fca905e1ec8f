// Package whatsmeow adapts go.mau.fi/whatsmeow to the transport contract.
// Each identity gets its own sqlite device store inside its isolated working
// directory, so pairing state never leaks across identities.
package whatsmeow

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	wm "go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/ebdaasoft/whatsdesk/internal/transport"
)

// Dialer implements transport.Dialer over whatsmeow.
type Dialer struct {
	logger *slog.Logger
}

// NewDialer creates a whatsmeow-backed dialer.
func NewDialer(log *slog.Logger) *Dialer {
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{logger: log.With(slog.String("component", "whatsmeow"))}
}

// Dial opens (or resumes) a session bound to the identity's working
// directory. When the device is unpaired, QR payloads stream through
// cb.OnQRCode until the handshake completes or the channel closes.
func (d *Dialer) Dial(ctx context.Context, identityID string, opts transport.Options, cb transport.Callbacks) (transport.Client, error) {
	if err := os.MkdirAll(opts.WorkingDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: working dir: %w", transport.ErrUnavailable, err)
	}
	dbPath := filepath.Join(opts.WorkingDir, "device.db")
	dbLog := waLog.Stdout("Database", "WARN", false)
	container, err := sqlstore.New(ctx, "sqlite3", "file:"+dbPath+"?_foreign_keys=on", dbLog)
	if err != nil {
		return nil, fmt.Errorf("%w: device store: %w", transport.ErrUnavailable, err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err == sql.ErrNoRows {
		device = container.NewDevice()
	} else if err != nil {
		return nil, fmt.Errorf("%w: device load: %w", transport.ErrUnavailable, err)
	}

	// The device name shows up in the phone's linked-devices list. The
	// reduced-compatibility profile advertises a plain browser identity,
	// which some server-side checks accept when the primary profile fails.
	if opts.ReducedCompatibility {
		store.SetOSInfo("Chrome (Linux)", [3]uint32{1, 0, 0})
	} else {
		name := opts.DisplayName
		if name == "" {
			name = "WhatsDesk"
		}
		store.SetOSInfo(name, [3]uint32{1, 0, 0})
	}

	cli := wm.NewClient(device, waLog.Stdout("Client", "WARN", false))
	client := &Client{
		logger: d.logger.With(slog.String("identity", identityID)),
		cli:    cli,
	}
	cli.AddEventHandler(func(raw any) {
		client.handleEvent(raw, cb)
	})

	if cli.Store.ID == nil {
		qrChan, qrErr := cli.GetQRChannel(context.WithoutCancel(ctx))
		if qrErr != nil {
			return nil, fmt.Errorf("%w: qr channel: %w", transport.ErrUnavailable, qrErr)
		}
		if err := cli.Connect(); err != nil {
			return nil, fmt.Errorf("%w: connect: %w", transport.ErrUnavailable, err)
		}
		go func() {
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					if cb.OnQRCode != nil {
						cb.OnQRCode(evt.Code)
					}
				case "success":
					return
				}
			}
		}()
		return client, nil
	}

	if err := cli.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %w", transport.ErrUnavailable, err)
	}
	return client, nil
}

// Client wraps one connected whatsmeow client.
type Client struct {
	logger *slog.Logger
	cli    *wm.Client
}

func (c *Client) handleEvent(raw any, cb transport.Callbacks) {
	switch evt := raw.(type) {
	case *events.Message:
		if cb.OnMessage == nil {
			return
		}
		info := evt.Info
		// Group chats and status broadcasts are outside the assistant's
		// scope.
		if info.Chat.Server == types.GroupServer || info.Chat.String() == types.StatusBroadcastJID.String() {
			return
		}
		body := evt.Message.GetConversation()
		if body == "" {
			body = evt.Message.GetExtendedTextMessage().GetText()
		}
		if body == "" {
			return
		}
		cb.OnMessage(transport.Message{
			From:      info.Chat.ToNonAD().String(),
			Body:      body,
			FromMe:    info.IsFromMe,
			PushName:  info.PushName,
			Timestamp: info.Timestamp,
		})
	case *events.Connected:
		if cb.OnStateChange != nil {
			cb.OnStateChange(transport.StateConnected)
		}
	case *events.Disconnected:
		if cb.OnStateChange != nil {
			cb.OnStateChange(transport.StateDisconnected)
		}
	case *events.LoggedOut:
		c.logger.Warn("device logged out", slog.Any("reason", evt.Reason))
		if cb.OnStateChange != nil {
			cb.OnStateChange(transport.StateLoggedOut)
		}
	}
}

// SendText delivers a plain text message to the target chat.
func (c *Client) SendText(ctx context.Context, target, text string) error {
	jid, err := parseTarget(target)
	if err != nil {
		return err
	}
	_, err = c.cli.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return fmt.Errorf("%w: send text: %w", transport.ErrUnavailable, err)
	}
	return nil
}

// SendImage uploads the file at source and delivers it as an image message.
func (c *Client) SendImage(ctx context.Context, target, source, filename, caption string) error {
	jid, err := parseTarget(target)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("%w: read image %s: %w", transport.ErrUnavailable, source, err)
	}
	uploaded, err := c.cli.Upload(ctx, data, wm.MediaImage)
	if err != nil {
		return fmt.Errorf("%w: upload image: %w", transport.ErrUnavailable, err)
	}
	msg := &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
		Caption:       proto.String(caption),
		Mimetype:      proto.String(http.DetectContentType(data)),
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uploaded.FileLength),
	}}
	if _, err := c.cli.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("%w: send image: %w", transport.ErrUnavailable, err)
	}
	_ = filename
	return nil
}

// IsLoggedIn reports whether the device holds valid pairing state.
func (c *Client) IsLoggedIn() bool {
	return c.cli.Store.ID != nil && c.cli.IsLoggedIn()
}

// IsSavedContact reports whether the target exists in the paired account's
// contact store with a saved name.
func (c *Client) IsSavedContact(ctx context.Context, userID string) (bool, error) {
	jid, err := parseTarget(userID)
	if err != nil {
		return false, err
	}
	info, err := c.cli.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return false, fmt.Errorf("%w: contact lookup: %w", transport.ErrUnavailable, err)
	}
	return info.Found && info.FullName != "", nil
}

// Disconnect closes the websocket. Best-effort: errors are not reported.
func (c *Client) Disconnect() {
	c.cli.Disconnect()
}

func parseTarget(target string) (types.JID, error) {
	jid, err := types.ParseJID(target)
	if err != nil || jid.User == "" {
		return types.JID{}, fmt.Errorf("%w: invalid target %q", transport.ErrUnavailable, target)
	}
	if jid.Server == "" {
		jid.Server = types.DefaultUserServer
	}
	return jid, nil
}
