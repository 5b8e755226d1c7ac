// Package server implements the TCP listener + fixed-size worker pool of
// §5: an accept loop hands each connection to a pool of worker
// goroutines, which run exactly one handler invocation to completion and
// close the connection on every exit path. The Server type is
// polymorphic over Handler so the same listener/pool machinery serves
// both the p2p and api surfaces (§9's "handler polymorphism").
package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// Handler reacts to one accepted connection. HandleConnection reads
// exactly as many messages as its protocol defines and writes at most one
// reply before returning; the connection is closed by the caller
// regardless of the returned error. OnError is invoked when
// HandleConnection fails, so callers can decide whether a failure is
// log-worthy noise (a framing error from a misbehaving peer) or not.
type Handler interface {
	HandleConnection(conn net.Conn) error
	OnError(err error)
}

// Server owns one TCP listener and a fixed pool of worker goroutines that
// drain accepted connections from it.
type Server struct {
	name    string
	address string
	workers int
	handler Handler
	log     *logrus.Entry

	mu        sync.Mutex
	listener  net.Listener
	connCh    chan net.Conn
	quit      chan struct{}
	wg        sync.WaitGroup
	processed atomic.Int64
}

// New builds a Server that will listen on address with the given worker
// pool size once Start is called.
func New(name, address string, workers int, handler Handler, log *logrus.Entry) *Server {
	return &Server{
		name:    name,
		address: address,
		workers: workers,
		handler: handler,
		log:     log.WithField("server", name),
		connCh:  make(chan net.Conn),
		quit:    make(chan struct{}),
	}
}

// Start binds the listener, caps its concurrently-accepted connections to
// the worker pool size via netutil.LimitListener, and starts the accept
// loop plus the worker pool.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = netutil.LimitListener(ln, s.workers)
	s.mu.Unlock()

	s.log.WithField("address", s.address).WithField("workers", s.workers).Info("server listening")

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.log.WithError(err).Warn("accept failed")
				continue
			}
		}
		select {
		case s.connCh <- conn:
		case <-s.quit:
			conn.Close()
			return
		}
	}
}

func (s *Server) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case conn, ok := <-s.connCh:
			if !ok {
				return
			}
			s.handleOne(conn)
		}
	}
}

func (s *Server) handleOne(conn net.Conn) {
	defer conn.Close()

	connID := uuid.New().String()
	entry := s.log.WithField("conn_id", connID).WithField("remote", conn.RemoteAddr().String())
	entry.Trace("connection accepted")

	s.processed.Add(1)
	if err := s.handler.HandleConnection(conn); err != nil {
		entry.WithError(err).Debug("connection handler returned an error")
		s.handler.OnError(err)
	}
}

// Stop closes the listener and waits for every in-flight worker to exit.
func (s *Server) Stop() {
	close(s.quit)

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}

	s.wg.Wait()
	s.log.WithField("connections_processed", s.processed.Load()).Info("server stopped")
}
