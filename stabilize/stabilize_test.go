package stabilize

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorddht/identifier"
	"chorddht/p2p"
	"chorddht/routing"
	"chorddht/store"
)

func quietEntry() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func addressFromHostPort(t *testing.T, hostport string) identifier.Address {
	t.Helper()
	host, portStr, err := net.SplitHostPort(hostport)
	require.NoError(t, err)
	var port int
	_, err = fmt.Sscanf(portStr, "%d", &port)
	require.NoError(t, err)
	return identifier.NewAddress(net.ParseIP(host), uint16(port))
}

// servePeer starts a real p2p listener for a fresh single node, returning
// its routing table and a stop func.
func servePeer(t *testing.T, addr string, fingers int) (*routing.Table, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)

	self := addressFromHostPort(t, ln.Addr().String())
	table := routing.NewFreshRing(self, fingers)
	values := store.NewTable()
	h := p2p.NewHandler(table, values, time.Second, quietEntry())

	done := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				close(done)
				return
			}
			go func() {
				defer conn.Close()
				h.HandleConnection(conn)
			}()
		}
	}()

	return table, func() {
		ln.Close()
		<-done
	}
}

func TestBootstrapJoinsExistingRing(t *testing.T) {
	tableA, stopA := servePeer(t, "127.0.0.1:19501", 4)
	defer stopA()

	tableB, stopB := servePeer(t, "127.0.0.1:19502", 4)
	defer stopB()

	procs := p2p.NewProcedures(time.Second, quietEntry())

	err := Bootstrap(tableB, procs, tableA.Current())
	require.NoError(t, err)

	assert.Equal(t, tableA.Current(), tableB.Successor(), "B's successor must become A after bootstrapping through A")
	assert.Equal(t, tableB.Current(), tableA.Predecessor(), "A must adopt B as predecessor once notified")
}

func TestStabilizeTickKeepsJoinedSuccessor(t *testing.T) {
	tableA, stopA := servePeer(t, "127.0.0.1:19503", 4)
	defer stopA()
	tableB, stopB := servePeer(t, "127.0.0.1:19504", 4)
	defer stopB()

	procs := p2p.NewProcedures(time.Second, quietEntry())
	require.NoError(t, Bootstrap(tableB, procs, tableA.Current()))

	engineA := New(tableA, procs, time.Hour, quietEntry())
	engineA.tick()

	assert.Equal(t, tableB.Current(), tableA.Successor(), "A's successor must be B after B's join notify and A's stabilization tick")
}

func TestFixFingersPopulatesFingerTable(t *testing.T) {
	tableA, stopA := servePeer(t, "127.0.0.1:19505", 4)
	defer stopA()
	tableB, stopB := servePeer(t, "127.0.0.1:19506", 4)
	defer stopB()

	procs := p2p.NewProcedures(time.Second, quietEntry())
	require.NoError(t, Bootstrap(tableB, procs, tableA.Current()))

	engineB := New(tableB, procs, time.Hour, quietEntry())
	engineB.tick()
	engineB.tick()

	var zero identifier.Address
	for i := 0; i < tableB.Fingers(); i++ {
		assert.NotEqual(t, zero, tableB.Finger(i))
	}
}
