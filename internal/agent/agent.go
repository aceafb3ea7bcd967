// Package agent wires the PDU codec, session FSM, MIB tree and updater
// scheduler into one running subagent process, composed through a
// functional-options constructor.
package agent

import (
	"context"
	"time"

	"github.com/packetflux/agentx-subagent/internal/axsession"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

// Config is the fully resolved agent configuration after Options are
// applied.
type Config struct {
	Network       string
	Address       string
	Descr         string
	SubagentOID   oid.OID
	AgentTimeout  time.Duration
	Trace         *axsession.Trace
	UpdaterConfig []updater.Config
	Roots         []axsession.RegisterSpec
	Entries       []mibtree.Entry
}

// Option configures an Agent at construction time.
type Option func(*Config)

func WithNetwork(network, address string) Option {
	return func(c *Config) { c.Network = network; c.Address = address }
}

func WithDescr(descr string) Option { return func(c *Config) { c.Descr = descr } }

func WithSubagentOID(o oid.OID) Option { return func(c *Config) { c.SubagentOID = o } }

func WithAgentTimeout(d time.Duration) Option {
	return func(c *Config) { c.AgentTimeout = d }
}

func WithTrace(t *axsession.Trace) Option { return func(c *Config) { c.Trace = t } }

func WithUpdaters(cfgs ...updater.Config) Option {
	return func(c *Config) { c.UpdaterConfig = append(c.UpdaterConfig, cfgs...) }
}

func WithRoots(roots ...axsession.RegisterSpec) Option {
	return func(c *Config) { c.Roots = append(c.Roots, roots...) }
}

func WithEntries(entries ...mibtree.Entry) Option {
	return func(c *Config) { c.Entries = append(c.Entries, entries...) }
}

// Agent is the fully wired subagent: a MIB tree, an updater scheduler
// keeping it fresh, and an AgentX session driving the master-agent
// connection.
type Agent struct {
	cfg       Config
	tree      *mibtree.Tree
	scheduler *updater.Scheduler
	session   *axsession.Session
}

// New builds an Agent from the given options. The MIB tree is composed
// here, and any entry collisions panic at startup.
func New(opts ...Option) *Agent {
	cfg := Config{
		Network:      "tcp",
		Address:      "127.0.0.1:705",
		AgentTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tree := mibtree.Build(cfg.Entries)
	scheduler := updater.NewScheduler(cfg.UpdaterConfig)

	sessionOpts := []axsession.Option{
		axsession.WithAgentTimeout(cfg.AgentTimeout),
		axsession.WithDescr(cfg.Descr),
		axsession.WithSubagentOID(cfg.SubagentOID),
	}
	if cfg.Trace != nil {
		sessionOpts = append(sessionOpts, axsession.WithTrace(cfg.Trace))
	}
	session := axsession.NewSession(cfg.Network, cfg.Address, tree, cfg.Roots, sessionOpts...)

	return &Agent{cfg: cfg, tree: tree, scheduler: scheduler, session: session}
}

// Tree exposes the composed MIB tree, chiefly for tests.
func (a *Agent) Tree() *mibtree.Tree { return a.tree }

// Run drives the updater scheduler and the AgentX session concurrently
// until ctx is canceled or either fails, as two cooperating goroutines
// rather than one shared event loop: Go's scheduler already gives each
// logical task fair, preemptible execution. The real invariant (readers
// never block on updaters, updater snapshots publish atomically) is
// preserved by updater.Snapshot, not by forcing both onto one goroutine.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- a.scheduler.Run(ctx) }()
	go func() { errs <- a.session.Run(ctx) }()

	first := <-errs
	cancel()
	second := <-errs
	if first != nil {
		return first
	}
	return second
}
