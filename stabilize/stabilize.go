package stabilize

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"chorddht/identifier"
	"chorddht/p2p"
	"chorddht/routing"
)

// Engine runs the periodic stabilization tick (§4.6/§5) on a dedicated
// goroutine: successor update, then finger refresh. A per-lookup failure
// is logged and does not abort the tick — the loop just tries again next
// interval.
type Engine struct {
	table    *routing.Table
	procs    *p2p.Procedures
	interval time.Duration
	log      *logrus.Entry

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a stabilization Engine; call Start to begin ticking.
func New(table *routing.Table, procs *p2p.Procedures, interval time.Duration, log *logrus.Entry) *Engine {
	return &Engine{
		table:    table,
		procs:    procs,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start runs the tick loop on its own goroutine.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop ends the tick loop and waits for the in-flight tick (if any) to
// finish.
func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.stabilizeSuccessor()
	e.fixFingers()
}

// stabilizeSuccessor is step 1 of §4.6: snapshot (current, successor),
// notify the successor of our presence, and adopt its reported candidate
// if it's a strict improvement. The lock is never held across the
// network round trip.
func (e *Engine) stabilizeSuccessor() {
	self := e.table.Current()
	successor := e.table.Successor()

	candidate, err := e.procs.NotifyPredecessor(successor, self)
	if err != nil {
		e.log.WithError(err).Debug("stabilize: successor notify failed, retrying next tick")
		return
	}
	e.table.ApplyStabilizeSuccessor(candidate)
}

// fixFingers is step 2 of §4.6: for each finger slot i, resolve the peer
// responsible for current + 2^(255-i) starting the search from the
// successor, and install it. Each lookup is independent; one failing
// finger does not block the rest.
func (e *Engine) fixFingers() {
	self := e.table.Current()
	successor := e.table.Successor()
	n := e.table.Fingers()

	for i := 0; i < n; i++ {
		bit := identifier.Bits - 1 - i
		if bit < 0 {
			break
		}
		targetID := self.ID.Add(identifier.Identifier{}.WithBit(bit))

		peer, err := e.procs.FindPeer(targetID, successor)
		if err != nil {
			e.log.WithError(err).WithField("finger", i).Debug("stabilize: finger lookup failed, retrying next tick")
			continue
		}
		e.table.SetFinger(i, peer)
	}
}
