package messagebroker

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNatsClient_NotConnected(t *testing.T) {
	noop := func(*nats.Msg) {}

	var nilClient *NatsClient
	_, err := nilClient.Subscribe(context.Background(), "alive5.sms.execute", "workers", noop)
	assert.EqualError(t, err, "NATS client not connected")
	assert.NotPanics(t, nilClient.Close)

	empty := &NatsClient{logger: discardLogger()}
	_, err = empty.Subscribe(context.Background(), "alive5.sms.execute", "", noop)
	assert.EqualError(t, err, "NATS client not connected")
	assert.NotPanics(t, empty.Close)
}

func TestNewNatsClient_ConnectionRefused(t *testing.T) {
	// Reserve a port, then release it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client, err := NewNatsClient("nats://"+addr, "alive5-connector-test", discardLogger())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}
