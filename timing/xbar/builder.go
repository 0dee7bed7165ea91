package xbar

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
)

// Builder can build interconnects.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq

	rdMaster, rdSlave axi.Config
	wrMaster, wrSlave axi.Config

	masterRd []axi.ReadChannels
	masterWr []axi.WriteChannels
	slaveRd  []axi.ReadChannels
	slaveWr  []axi.WriteChannels

	resolver     Resolver
	halter       Halter
	logger       *log.Logger
	allowReorder bool
	outRCap      int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:     1 * sim.GHz,
		rdMaster: axi.DefaultConfig(),
		rdSlave:  axi.DefaultConfig(),
		wrMaster: axi.DefaultConfig(),
		wrSlave:  axi.DefaultConfig(),
		logger:   log.Default(),
		outRCap:  4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithReadConfigs sets the read interfaces on the master and slave sides.
func (b Builder) WithReadConfigs(master, slave axi.Config) Builder {
	b.rdMaster = master
	b.rdSlave = slave
	return b
}

// WithWriteConfigs sets the write interfaces on the master and slave sides.
func (b Builder) WithWriteConfigs(master, slave axi.Config) Builder {
	b.wrMaster = master
	b.wrSlave = slave
	return b
}

// WithMasterChannels sets the channels of the masters, indexed by master.
func (b Builder) WithMasterChannels(
	rd []axi.ReadChannels,
	wr []axi.WriteChannels,
) Builder {
	b.masterRd = rd
	b.masterWr = wr
	return b
}

// WithSlaveChannels sets the channels of the slaves, indexed by
// destination.
func (b Builder) WithSlaveChannels(
	rd []axi.ReadChannels,
	wr []axi.WriteChannels,
) Builder {
	b.slaveRd = rd
	b.slaveWr = wr
	return b
}

// WithResolver sets the address map.
func (b Builder) WithResolver(r Resolver) Builder {
	b.resolver = r
	return b
}

// WithHalter sets the halter failures are reported to.
func (b Builder) WithHalter(h Halter) Builder {
	b.halter = h
	return b
}

// WithLogger sets the logger diagnostics are written to.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithAllowReorder disables the ordering guard, letting bursts of one
// identifier go to different slaves at the same time.
func (b Builder) WithAllowReorder(allow bool) Builder {
	b.allowReorder = allow
	return b
}

// WithReadBufferSize sets how many converted read beats may wait for one
// master before the interconnect stops taking read data for it.
func (b Builder) WithReadBufferSize(n int) Builder {
	b.outRCap = n
	return b
}

// Build creates an interconnect with the given name.
func (b Builder) Build(name string) *Xbar {
	if b.resolver == nil || b.halter == nil {
		log.Panicf("xbar %s: resolver and halter are required", name)
	}

	if len(b.masterRd) != len(b.masterWr) || len(b.slaveRd) != len(b.slaveWr) {
		log.Panicf("xbar %s: read and write channel counts differ", name)
	}

	if len(b.masterRd) == 0 || len(b.slaveRd) == 0 {
		log.Panicf("xbar %s: at least one master and one slave needed", name)
	}

	x := &Xbar{
		rdMaster:     b.rdMaster,
		rdSlave:      b.rdSlave,
		wrMaster:     b.wrMaster,
		wrSlave:      b.wrSlave,
		resolver:     b.resolver,
		halter:       b.halter,
		logger:       b.logger,
		allowReorder: b.allowReorder,
		outRCap:      max(b.outRCap, 1),
	}
	x.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, x)

	b.buildMasterSide(x)
	b.buildSlaveSide(x)

	return x
}

func (b Builder) buildMasterSide(x *Xbar) {
	n := len(b.masterRd)

	x.rdGuard = make([]*idGuard, n)
	x.wrGuard = make([]*idGuard, n)
	x.outR = make([][]axi.ReadPayload, n)
	x.outB = make([][]axi.WRespPayload, n)
	x.wActive = make([]*writeRoute, n)

	for i := 0; i < n; i++ {
		rd := axi.NewReadSlave(b.masterRd[i])
		wr := axi.NewWriteSlave(b.masterWr[i])

		b.masterRd[i].AR.SetConsumer(x)
		b.masterRd[i].R.SetProducer(x)
		b.masterWr[i].AW.SetConsumer(x)
		b.masterWr[i].W.SetConsumer(x)
		b.masterWr[i].B.SetProducer(x)
		rd.Reset()
		wr.Reset()

		x.mRd = append(x.mRd, rd)
		x.mWr = append(x.mWr, wr)
		x.rdGuard[i] = newIDGuard()
		x.wrGuard[i] = newIDGuard()
	}
}

func (b Builder) buildSlaveSide(x *Xbar) {
	n := len(b.slaveRd)

	x.rdRoutes = make([][]*readRoute, n)
	x.wOrder = make([][]*writeRoute, n)
	x.bRoutes = make([][]*writeRoute, n)

	for i := 0; i < n; i++ {
		rd := axi.NewReadMaster(b.slaveRd[i])
		wr := axi.NewWriteMaster(b.slaveWr[i])

		b.slaveRd[i].AR.SetProducer(x)
		b.slaveRd[i].R.SetConsumer(x)
		b.slaveWr[i].AW.SetProducer(x)
		b.slaveWr[i].W.SetProducer(x)
		b.slaveWr[i].B.SetConsumer(x)
		rd.Reset()
		wr.Reset()

		x.sRd = append(x.sRd, rd)
		x.sWr = append(x.sWr, wr)
	}
}
