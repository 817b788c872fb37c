package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbridge/host/config"
	"adsbridge/protocol"
)

type fakeToken struct {
	done    chan struct{}
	err     error
	expired bool
}

func newToken(err error, expired bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err, expired: expired}
	if !expired {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { return !t.expired }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.expired }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type message struct {
	topic   string
	qos     byte
	payload interface{}
}

type fakeClient struct {
	sent         []message
	err          error
	expired      bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.sent = append(c.sent, message{topic, qos, payload})
	return newToken(c.err, c.expired)
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublishDecimalPayload(t *testing.T) {
	client := &fakeClient{}
	p := New(client, config.Default().MQTT)

	require.NoError(t, p.Publish(protocol.Sample{Value: 1193046}))
	require.NoError(t, p.Publish(protocol.Sample{Value: protocol.SampleMax}))

	assert.Equal(t, []message{
		{"adc/data", 0, "1193046"},
		{"adc/data", 0, "16777215"},
	}, client.sent)
	published, failed := p.Stats()
	assert.Equal(t, uint64(2), published)
	assert.Zero(t, failed)
}

func TestPublishErrors(t *testing.T) {
	brokerErr := errors.New("not authorized")
	p := New(&fakeClient{err: brokerErr}, config.Default().MQTT)
	assert.ErrorIs(t, p.Publish(protocol.Sample{Value: 1}), brokerErr)

	p = New(&fakeClient{expired: true}, config.Default().MQTT)
	assert.ErrorIs(t, p.Publish(protocol.Sample{Value: 1}), ErrTimeout)
	_, failed := p.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestRunDrainsUntilClosed(t *testing.T) {
	client := &fakeClient{}
	p := New(client, config.Default().MQTT)

	in := make(chan protocol.Sample, 3)
	in <- protocol.Sample{Value: 1}
	in <- protocol.Sample{Value: 2}
	in <- protocol.Sample{Value: 3}
	close(in)

	require.NoError(t, p.Run(context.Background(), in))
	assert.Len(t, client.sent, 3)

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("queue full")}
	p := New(client, config.Default().MQTT)

	in := make(chan protocol.Sample, 2)
	in <- protocol.Sample{Value: 1}
	in <- protocol.Sample{Value: 2}
	close(in)

	require.NoError(t, p.Run(context.Background(), in))
	_, failed := p.Stats()
	assert.Equal(t, uint64(2), failed)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := New(&fakeClient{}, config.Default().MQTT)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Run(ctx, make(chan protocol.Sample)), context.Canceled)
}

func TestClientOptions(t *testing.T) {
	cfg := config.Default().MQTT
	opts := ClientOptions(cfg)
	reader := paho.NewClient(opts).OptionsReader()

	require.Len(t, reader.Servers(), 1)
	assert.Equal(t, "localhost:1883", reader.Servers()[0].Host)
	assert.Equal(t, "adsbridge-host", reader.ClientID())
	assert.True(t, reader.AutoReconnect())
}
