package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"

	appnotification "github.com/erp/stockledger/internal/application/notification"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestSMTPNotifier_Send(t *testing.T) {
	fake := &fakeSender{}
	n := &SMTPNotifier{from: "ledger@example.com", sender: fake}

	err := n.Send(context.Background(), appnotification.Notification{
		Recipients: []string{"a@example.com", "b@example.com"},
		Subject:    "[Stock] Sale: Slate",
		Body:       "<p>sold</p>",
	})

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	msg := fake.sent[0]
	assert.Equal(t, []string{"ledger@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"[Stock] Sale: Slate"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<p>sold</p>")
}

func TestSMTPNotifier_Errors(t *testing.T) {
	t.Run("no recipients", func(t *testing.T) {
		n := &SMTPNotifier{sender: &fakeSender{}}
		assert.ErrorIs(t, n.Send(context.Background(), appnotification.Notification{}), ErrNoRecipients)
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := &fakeSender{}
		n := &SMTPNotifier{sender: fake}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := n.Send(ctx, appnotification.Notification{Recipients: []string{"a@example.com"}})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, fake.sent)
	})

	t.Run("dial failure is wrapped", func(t *testing.T) {
		dialErr := errors.New("connection refused")
		n := &SMTPNotifier{sender: &fakeSender{err: dialErr}}

		err := n.Send(context.Background(), appnotification.Notification{Recipients: []string{"a@example.com"}})

		assert.ErrorIs(t, err, dialErr)
	})
}

func TestNew(t *testing.T) {
	assert.IsType(t, NoopNotifier{}, New(config.NotificationConfig{}))

	n := New(config.NotificationConfig{Enabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587, Username: "bot@example.com"})
	require.IsType(t, &SMTPNotifier{}, n)
	assert.Equal(t, "bot@example.com", n.(*SMTPNotifier).from)
}
