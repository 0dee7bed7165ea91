// Package platform assembles a complete testbench: masters, the reference
// interconnect and slaves around one scoreboard, driven by an akita engine.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/akita/v4/sim"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/config"
	"github.com/sarchlab/axitb/scoreboard"
	"github.com/sarchlab/axitb/timing/master"
	"github.com/sarchlab/axitb/timing/slave"
	"github.com/sarchlab/axitb/timing/xbar"
	"github.com/sarchlab/axitb/txngen"
)

// ErrIncomplete reports expected traffic that was never observed once the
// simulation drained.
var ErrIncomplete = errors.New("transactions left outstanding")

// Platform is a built testbench.
type Platform struct {
	Config     *config.Config
	Engine     sim.Engine
	AddrMap    *addrmap.Map
	Scoreboard *scoreboard.Scoreboard
	Masters    []*master.Master
	Slaves     []*slave.Slave
	Xbar       *xbar.Xbar
	Stop       *StopSignal
	Halt       *HaltSignal

	rdChannels []axi.ReadChannels
	wrChannels []axi.WriteChannels
}

// ChannelState is the occupancy of one handshake channel.
type ChannelState interface {
	Name() string
	Size() int
	Capacity() int
}

// Channels returns every handshake channel of the platform, masters first.
func (p *Platform) Channels() []ChannelState {
	var chs []ChannelState

	for _, ch := range p.rdChannels {
		chs = append(chs, ch.AR, ch.R)
	}

	for _, ch := range p.wrChannels {
		chs = append(chs, ch.AW, ch.W, ch.B)
	}

	return chs
}

// Component is a ticking part of the platform.
type Component interface {
	sim.Named
	TickLater()
}

// Components returns every ticking component of the platform.
func (p *Platform) Components() []Component {
	var comps []Component

	for _, m := range p.Masters {
		comps = append(comps, m)
	}

	comps = append(comps, p.Xbar)

	for _, s := range p.Slaves {
		comps = append(comps, s)
	}

	return comps
}

// ComponentByName returns the component with the given name, or nil.
func (p *Platform) ComponentByName(name string) Component {
	for _, c := range p.Components() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// Cycle returns the current cycle of the simulation.
func (p *Platform) Cycle() uint64 {
	return p.Config.Freq().Cycle(p.Engine.CurrentTime())
}

// Run simulates until every master has stopped and drained, or until a
// failure halts the run. It returns the first failure, or ErrIncomplete
// when the scoreboard still expects traffic.
func (p *Platform) Run() (Report, error) {
	var report Report

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return p.Scoreboard.Run(ctx)
	})

	g.Go(func() error {
		defer p.Scoreboard.Close()

		for _, m := range p.Masters {
			m.TickLater()
		}

		if err := p.Engine.Run(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}

		report = p.collect()

		snap, err := p.Scoreboard.Snapshot()
		if err != nil {
			return err
		}
		report.Leftover = snap

		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}

	if err := p.Halt.Err(); err != nil {
		return report, err
	}

	if n := report.Leftover.Outstanding(); n > 0 {
		return report, fmt.Errorf("%w: %d entries, first in %s",
			ErrIncomplete, n, report.Leftover.NonEmpty()[0].Name)
	}

	return report, nil
}

func (p *Platform) collect() Report {
	r := Report{
		Cycles: p.Cycle(),
		Xbar:   p.Xbar.Stats(),
	}

	for _, m := range p.Masters {
		r.Masters = append(r.Masters, m.Stats())
	}

	for _, s := range p.Slaves {
		r.Slaves = append(r.Slaves, s.Stats())
	}

	return r
}

// Builder can build platforms.
type Builder struct {
	cfg         *config.Config
	recorder    master.Recorder
	logger      *log.Logger
	traceLogger *log.Logger
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:    config.DefaultConfig(),
		logger: log.Default(),
	}
}

// WithConfig sets the testbench configuration.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithRecorder sets the recorder every master reports its transactions to.
func (b Builder) WithRecorder(r master.Recorder) Builder {
	b.recorder = r
	return b
}

// WithLogger sets the logger failures are written to.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithChannelTrace traces every channel handshake into the logger.
func (b Builder) WithChannelTrace(l *log.Logger) Builder {
	b.traceLogger = l
	return b
}

// Build creates the platform. It panics when the configuration is invalid.
func (b Builder) Build() *Platform {
	if err := b.cfg.Validate(); err != nil {
		log.Panicf("platform: invalid configuration: %v", err)
	}

	cfg := b.cfg.Clone()

	p := &Platform{
		Config:     cfg,
		AddrMap:    cfg.AddressMap(),
		Scoreboard: scoreboard.New(cfg.Masters, cfg.Slaves),
		Stop:       NewStopSignal(cfg.GenCycles),
		Halt:       &HaltSignal{},
	}

	if cfg.Parallel {
		p.Engine = sim.NewParallelEngine()
	} else {
		p.Engine = sim.NewSerialEngine()
	}

	mRd, mWr := b.channels("Master", cfg.Masters)
	sRd, sWr := b.channels("Slave", cfg.Slaves)

	p.rdChannels = append(append(p.rdChannels, mRd...), sRd...)
	p.wrChannels = append(append(p.wrChannels, mWr...), sWr...)

	b.buildMasters(p, mRd, mWr)
	b.buildSlaves(p, sRd, sWr)

	p.Xbar = xbar.MakeBuilder().
		WithEngine(p.Engine).
		WithFreq(cfg.Freq()).
		WithReadConfigs(cfg.RdMaster(), cfg.RdSlave()).
		WithWriteConfigs(cfg.WrMaster(), cfg.WrSlave()).
		WithMasterChannels(mRd, mWr).
		WithSlaveChannels(sRd, sWr).
		WithResolver(p.AddrMap).
		WithHalter(p.Halt).
		WithLogger(b.logger).
		WithAllowReorder(cfg.AllowReorder).
		Build("Xbar")

	if b.traceLogger != nil {
		b.trace(p)
	}

	return p
}

func (b Builder) channels(
	prefix string,
	n int,
) ([]axi.ReadChannels, []axi.WriteChannels) {
	var rd []axi.ReadChannels
	var wr []axi.WriteChannels

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s[%d]", prefix, i)
		rd = append(rd, axi.NewReadChannels(name, b.cfg.ChannelDepth))
		wr = append(wr, axi.NewWriteChannels(name, b.cfg.ChannelDepth))
	}

	return rd, wr
}

func (b Builder) buildMasters(
	p *Platform,
	rd []axi.ReadChannels,
	wr []axi.WriteChannels,
) {
	cfg := p.Config

	genConfig := txngen.Config{
		RdMaster:   cfg.RdMaster(),
		RdSlave:    cfg.RdSlave(),
		WrMaster:   cfg.WrMaster(),
		WrSlave:    cfg.WrSlave(),
		IDCount:    cfg.IDCount,
		MaxLen:     cfg.MaxLen,
		MaxIncrLen: cfg.MaxIncrLen,
		AddrStride: cfg.AddrStride,
	}

	for i := 0; i < cfg.Masters; i++ {
		mb := master.MakeBuilder().
			WithEngine(p.Engine).
			WithFreq(cfg.Freq()).
			WithIndex(i).
			WithSeed(cfg.Seed + int64(i)).
			WithGeneratorConfig(genConfig).
			WithGenRates(cfg.GenRateRd, cfg.GenRateWr).
			WithScoreboard(p.Scoreboard).
			WithResolver(p.AddrMap).
			WithReadChannels(rd[i]).
			WithWriteChannels(wr[i]).
			WithStopSignal(p.Stop).
			WithHalter(p.Halt).
			WithLogger(b.logger).
			WithFailFast(cfg.FailFast).
			WithStallThreshold(cfg.StallThreshold)

		if b.recorder != nil {
			mb = mb.WithRecorder(b.recorder)
		}

		p.Masters = append(p.Masters, mb.Build(fmt.Sprintf("Master[%d]", i)))
	}
}

func (b Builder) buildSlaves(
	p *Platform,
	rd []axi.ReadChannels,
	wr []axi.WriteChannels,
) {
	cfg := p.Config

	for i := 0; i < cfg.Slaves; i++ {
		s := slave.MakeBuilder().
			WithEngine(p.Engine).
			WithFreq(cfg.Freq()).
			WithIndex(i).
			WithReadConfig(cfg.RdSlave()).
			WithWriteConfig(cfg.WrSlave()).
			WithReadChannels(rd[i]).
			WithWriteChannels(wr[i]).
			WithLatency(cfg.ReadLatencyOf(i), cfg.WriteLatencyOf(i)).
			WithScoreboard(p.Scoreboard).
			WithHalter(p.Halt).
			WithLogger(b.logger).
			WithFailFast(cfg.FailFast).
			Build(fmt.Sprintf("Slave[%d]", i))

		p.Slaves = append(p.Slaves, s)
	}
}

func (b Builder) trace(p *Platform) {
	hook := axi.NewChannelLogger(b.traceLogger, p.Engine, p.Config.Freq())

	for _, ch := range p.rdChannels {
		ch.AR.AcceptHook(hook)
		ch.R.AcceptHook(hook)
	}

	for _, ch := range p.wrChannels {
		ch.AW.AcceptHook(hook)
		ch.W.AcceptHook(hook)
		ch.B.AcceptHook(hook)
	}
}
