package slave

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
)

// Builder can build slaves.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq

	index        int
	rdCfg        axi.Config
	wrCfg        axi.Config
	rd           axi.ReadChannels
	wr           axi.WriteChannels
	readLatency  uint64
	writeLatency uint64

	sb       Scoreboard
	halter   Halter
	logger   *log.Logger
	failFast bool
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		rdCfg:        axi.DefaultConfig(),
		wrCfg:        axi.DefaultConfig(),
		readLatency:  1,
		writeLatency: 1,
		logger:       log.Default(),
		failFast:     true,
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

// WithIndex sets the destination index the slave answers with.
func (b Builder) WithIndex(index int) Builder {
	b.index = index
	return b
}

// WithReadConfig sets the read interface of the slave.
func (b Builder) WithReadConfig(cfg axi.Config) Builder {
	b.rdCfg = cfg
	return b
}

// WithWriteConfig sets the write interface of the slave.
func (b Builder) WithWriteConfig(cfg axi.Config) Builder {
	b.wrCfg = cfg
	return b
}

// WithReadChannels sets the read channels the slave serves.
func (b Builder) WithReadChannels(ch axi.ReadChannels) Builder {
	b.rd = ch
	return b
}

// WithWriteChannels sets the write channels the slave serves.
func (b Builder) WithWriteChannels(ch axi.WriteChannels) Builder {
	b.wr = ch
	return b
}

// WithLatency sets the read and write response latencies in cycles.
func (b Builder) WithLatency(read, write uint64) Builder {
	b.readLatency = read
	b.writeLatency = write
	return b
}

// WithScoreboard sets the scoreboard.
func (b Builder) WithScoreboard(sb Scoreboard) Builder {
	b.sb = sb
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

// WithFailFast sets whether unexpected traffic halts the run.
func (b Builder) WithFailFast(failFast bool) Builder {
	b.failFast = failFast
	return b
}

// Build creates a slave with the given name.
func (b Builder) Build(name string) *Slave {
	if b.sb == nil || b.halter == nil {
		log.Panicf("slave %s: scoreboard and halter are required", name)
	}

	s := &Slave{
		index:        b.index,
		rdCfg:        b.rdCfg,
		wrCfg:        b.wrCfg,
		sb:           b.sb,
		halter:       b.halter,
		logger:       b.logger,
		failFast:     b.failFast,
		readLatency:  b.readLatency,
		writeLatency: b.writeLatency,
	}
	s.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, s)

	s.rd = axi.NewReadSlave(b.rd)
	s.wr = axi.NewWriteSlave(b.wr)
	b.rd.AR.SetConsumer(s)
	b.rd.R.SetProducer(s)
	b.wr.AW.SetConsumer(s)
	b.wr.W.SetConsumer(s)
	b.wr.B.SetProducer(s)
	s.rd.Reset()
	s.wr.Reset()

	return s
}
