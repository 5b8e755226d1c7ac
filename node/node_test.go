package node

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorddht/config"
)

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestNewFormsFreshRingWithoutBootstrap(t *testing.T) {
	cfg := &config.Config{
		ListenAddress:         "127.0.0.1:" + strconv.Itoa(freePort(t)),
		APIAddress:            "127.0.0.1:" + strconv.Itoa(freePort(t)),
		WorkerThreads:         2,
		Timeout:               time.Second,
		Fingers:               4,
		StabilizationInterval: time.Hour,
		MaxReplication:        3,
	}

	n, err := New(cfg, nil, quietLog())
	require.NoError(t, err)
	assert.Equal(t, n.Self(), n.table.Successor())
	assert.Equal(t, n.Self(), n.table.Predecessor())
}

func TestRunServesBothSurfacesUntilCancelled(t *testing.T) {
	cfg := &config.Config{
		ListenAddress:         "127.0.0.1:" + strconv.Itoa(freePort(t)),
		APIAddress:            "127.0.0.1:" + strconv.Itoa(freePort(t)),
		WorkerThreads:         2,
		Timeout:               time.Second,
		Fingers:               4,
		StabilizationInterval: time.Hour,
		MaxReplication:        3,
	}

	n, err := New(cfg, nil, quietLog())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- n.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", cfg.APIAddress, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
