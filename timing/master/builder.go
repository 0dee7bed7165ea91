package master

import (
	"log"
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/order"
	"github.com/sarchlab/axitb/txngen"
)

// Builder can build masters.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq

	index     int
	seed      int64
	genConfig txngen.Config
	genRateRd int
	genRateWr int

	sb       Scoreboard
	resolver order.Resolver
	rd       axi.ReadChannels
	wr       axi.WriteChannels

	stop           StopSignal
	halter         Halter
	recorder       Recorder
	logger         *log.Logger
	failFast       bool
	stallThreshold uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:      1 * sim.GHz,
		genRateRd: 20,
		genRateWr: 20,
		stop:      StopAt(1000),
		logger:    log.Default(),
		failFast:  true,
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

// WithIndex sets the index of the master. It selects the scoreboard queues
// and is written into the last byte of every write.
func (b Builder) WithIndex(index int) Builder {
	b.index = index
	return b
}

// WithSeed sets the seed of the master's random generator.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithGeneratorConfig sets the traffic shape.
func (b Builder) WithGeneratorConfig(cfg txngen.Config) Builder {
	b.genConfig = cfg
	return b
}

// WithGenRates sets the per-cycle read and write generation probabilities,
// in percent.
func (b Builder) WithGenRates(rd, wr int) Builder {
	b.genRateRd = rd
	b.genRateWr = wr
	return b
}

// WithScoreboard sets the scoreboard.
func (b Builder) WithScoreboard(sb Scoreboard) Builder {
	b.sb = sb
	return b
}

// WithResolver sets the address map.
func (b Builder) WithResolver(r order.Resolver) Builder {
	b.resolver = r
	return b
}

// WithReadChannels sets the read channels the master drives.
func (b Builder) WithReadChannels(ch axi.ReadChannels) Builder {
	b.rd = ch
	return b
}

// WithWriteChannels sets the write channels the master drives.
func (b Builder) WithWriteChannels(ch axi.WriteChannels) Builder {
	b.wr = ch
	return b
}

// WithStopSignal sets the signal that ends generation.
func (b Builder) WithStopSignal(s StopSignal) Builder {
	b.stop = s
	return b
}

// WithHalter sets the halter failures are reported to.
func (b Builder) WithHalter(h Halter) Builder {
	b.halter = h
	return b
}

// WithRecorder sets the transaction recorder.
func (b Builder) WithRecorder(r Recorder) Builder {
	b.recorder = r
	return b
}

// WithLogger sets the logger diagnostics are written to.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithFailFast sets whether a verification failure halts the run.
func (b Builder) WithFailFast(failFast bool) Builder {
	b.failFast = failFast
	return b
}

// WithStallThreshold sets the number of cycles without progress after which
// a busy master reports a stall. Zero disables the check.
func (b Builder) WithStallThreshold(cycles uint64) Builder {
	b.stallThreshold = cycles
	return b
}

// Build creates a master with the given name.
func (b Builder) Build(name string) *Master {
	if b.sb == nil || b.resolver == nil {
		log.Panicf("master %s: scoreboard and resolver are required", name)
	}

	m := &Master{
		index:          b.index,
		sb:             b.sb,
		resolver:       b.resolver,
		rdOrder:        order.NewTracker(b.resolver),
		wrOrder:        order.NewTracker(b.resolver),
		genRateRd:      b.genRateRd,
		genRateWr:      b.genRateWr,
		stop:           b.stop,
		halter:         b.halter,
		recorder:       b.recorder,
		logger:         b.logger,
		failFast:       b.failFast,
		stallThreshold: b.stallThreshold,
	}
	m.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, m)

	if m.halter == nil {
		m.halter = &localHalter{}
	}

	m.rng = rand.New(rand.NewSource(b.seed))

	genConfig := b.genConfig
	genConfig.Master = b.index
	m.gen = txngen.New(genConfig, b.resolver, m.rng)

	m.rd = axi.NewReadMaster(b.rd)
	m.wr = axi.NewWriteMaster(b.wr)
	b.rd.AR.SetProducer(m)
	b.rd.R.SetConsumer(m)
	b.wr.AW.SetProducer(m)
	b.wr.W.SetProducer(m)
	b.wr.B.SetConsumer(m)
	m.rd.Reset()
	m.wr.Reset()

	return m
}
