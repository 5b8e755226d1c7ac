// Package node wires the config, routing table, value store, p2p/api
// handlers and the stabilization engine into the two listening servers a
// running chord node needs, mirroring how the teacher's cmd package wires
// a protocol package's pieces into a single runnable command.
package node

import (
	"context"

	"github.com/sirupsen/logrus"

	"chorddht/apihandler"
	"chorddht/config"
	"chorddht/identifier"
	"chorddht/p2p"
	"chorddht/routing"
	"chorddht/server"
	"chorddht/stabilize"
	"chorddht/store"
)

// Node owns every long-lived piece of a running chord participant: its
// routing state, its two TCP servers (p2p and api), and the background
// stabilization engine.
type Node struct {
	cfg    *config.Config
	table  *routing.Table
	values *store.Table
	procs  *p2p.Procedures

	p2pServer *server.Server
	apiServer *server.Server
	engine    *stabilize.Engine

	log *logrus.Entry
}

// New builds a Node from cfg, binding its own identity from
// cfg.ListenAddress and, if bootstrapAddr is non-nil, joining the ring
// through it before returning. A nil bootstrapAddr forms a fresh
// single-node ring (§4.6's bootstrap case).
func New(cfg *config.Config, bootstrapAddr *identifier.Address, log *logrus.Entry) (*Node, error) {
	self, err := identifier.ResolveAddress(cfg.ListenAddress)
	if err != nil {
		return nil, err
	}

	table := routing.NewFreshRing(self, cfg.Fingers)
	values := store.NewTable()
	procs := p2p.NewProcedures(cfg.Timeout, log.WithField("component", "procedures"))

	if bootstrapAddr != nil {
		if err := stabilize.Bootstrap(table, procs, *bootstrapAddr); err != nil {
			return nil, err
		}
		log.WithField("via", bootstrapAddr.String()).Info("joined existing ring")
	} else {
		log.Info("formed new ring")
	}

	p2pHandler := p2p.NewHandler(table, values, cfg.Timeout, log.WithField("component", "p2p"))
	p2pServer := server.New("p2p", cfg.ListenAddress, cfg.WorkerThreads, p2pHandler, log)

	apiHandlerImpl := apihandler.NewHandler(table, procs, cfg.MaxReplication, cfg.Timeout, log.WithField("component", "api"))
	apiServer := server.New("api", cfg.APIAddress, cfg.WorkerThreads, apiHandlerImpl, log)

	engine := stabilize.New(table, procs, cfg.StabilizationInterval, log.WithField("component", "stabilize"))

	return &Node{
		cfg:       cfg,
		table:     table,
		values:    values,
		procs:     procs,
		p2pServer: p2pServer,
		apiServer: apiServer,
		engine:    engine,
		log:       log,
	}, nil
}

// Run starts both servers and the stabilization engine, then blocks until
// ctx is cancelled, shutting everything down in reverse startup order.
func (n *Node) Run(ctx context.Context) error {
	if err := n.p2pServer.Start(); err != nil {
		return err
	}
	if err := n.apiServer.Start(); err != nil {
		n.p2pServer.Stop()
		return err
	}
	n.engine.Start()

	<-ctx.Done()

	n.log.Info("shutting down")
	n.engine.Stop()
	n.apiServer.Stop()
	n.p2pServer.Stop()
	return nil
}

// Self returns this node's own ring address, mainly for startup logging.
func (n *Node) Self() identifier.Address {
	return n.table.Current()
}
