// Package stabilize implements §4.6: the initial bootstrap join and the
// periodic stabilization tick that keeps the successor and finger table
// current under churn.
package stabilize

import (
	"chorddht/identifier"
	"chorddht/p2p"
	"chorddht/routing"
)

// Bootstrap joins an existing ring through bootstrapAddr: find our
// successor, then notify it of our arrival in the same round trip that
// tells us our predecessor. The finger table is left as F copies of
// current (routing.NewFreshRing's own initialization) and is filled in by
// the first stabilization tick's finger refresh.
func Bootstrap(table *routing.Table, procs *p2p.Procedures, bootstrapAddr identifier.Address) error {
	self := table.Current()

	successor, err := procs.FindPeer(self.ID, bootstrapAddr)
	if err != nil {
		return err
	}
	table.SetSuccessor(successor)

	predecessor, err := procs.NotifyPredecessor(successor, self)
	if err != nil {
		return err
	}
	table.SetPredecessor(predecessor)

	return nil
}
