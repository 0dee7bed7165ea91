package benchmarks

import (
	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/config"
	"github.com/sarchlab/axitb/timing/master"
)

// GetScenarios returns the scenarios every interconnect build must pass.
// Each one stresses a different conversion or arbitration path.
func GetScenarios() []Benchmark {
	return []Benchmark{
		equalWidth(),
		downsize2to1(),
		downsize4to1(),
		upsize(),
		mixedWidth(),
		manyMasters(),
		ace(),
		parallel(),
		narrowID(),
	}
}

// GetFaultScenarios returns the scenarios that inject a protocol fault the
// verifier must catch.
func GetFaultScenarios() []Benchmark {
	return []Benchmark{
		reorderInjection(),
	}
}

// 1. Equal width: no conversion, pure routing and arbitration.
func equalWidth() Benchmark {
	return Benchmark{
		Name:        "equal_width",
		Description: "64-bit masters on 64-bit slaves",
		Configure: func(cfg *config.Config) {
			setLanes(cfg, 8, 8, 8, 8)
		},
	}
}

// 2. Downsize by two on both read and write paths.
func downsize2to1() Benchmark {
	return Benchmark{
		Name:        "downsize_2to1",
		Description: "64-bit masters on 32-bit slaves",
		Configure: func(cfg *config.Config) {
			setLanes(cfg, 8, 4, 8, 4)
		},
	}
}

// 3. Downsize by four, every master beat splits into four.
func downsize4to1() Benchmark {
	return Benchmark{
		Name:        "downsize_4to1",
		Description: "128-bit masters on 32-bit slaves",
		Configure: func(cfg *config.Config) {
			setLanes(cfg, 16, 4, 16, 4)
		},
	}
}

// 4. Upsize: narrow masters on wide slaves.
func upsize() Benchmark {
	return Benchmark{
		Name:        "upsize",
		Description: "32-bit masters on 64-bit slaves",
		Configure: func(cfg *config.Config) {
			setLanes(cfg, 4, 8, 4, 8)
		},
	}
}

// 5. Mixed: reads downsize while writes upsize.
func mixedWidth() Benchmark {
	return Benchmark{
		Name:        "mixed_width",
		Description: "downsized reads with upsized writes",
		Configure: func(cfg *config.Config) {
			setLanes(cfg, 8, 4, 4, 8)
		},
	}
}

// 6. Four masters contend for four slaves.
func manyMasters() Benchmark {
	return Benchmark{
		Name:        "many_masters",
		Description: "4 masters on 4 slaves with split address ranges",
		Configure: func(cfg *config.Config) {
			cfg.Masters = 4
			cfg.Slaves = 4
			cfg.AddrMap = []addrmap.Range{
				{Low: 0x00000, High: 0x07FFF},
				{Low: 0x08000, High: 0x0FFFF},
				{Low: 0x10000, High: 0x17FFF},
				{Low: 0x18000, High: 0x1FFFF},
			}
			cfg.ReadLatency = []uint64{2, 7, 1, 4}
			cfg.WriteLatency = []uint64{1, 3, 6, 2}
		},
	}
}

// 7. ACE coherence fields ride along with every request.
func ace() Benchmark {
	return Benchmark{
		Name:        "ace",
		Description: "ACE extension fields enabled on every interface",
		Configure: func(cfg *config.Config) {
			cfg.Bus.UseACE = true
		},
	}
}

// 8. Parallel engine on the default bench.
func parallel() Benchmark {
	return Benchmark{
		Name:        "parallel",
		Description: "default bench on the parallel engine",
		Configure: func(cfg *config.Config) {
			cfg.Parallel = true
		},
	}
}

// 9. One id only: every burst of a master is ordered against every other.
func narrowID() Benchmark {
	return Benchmark{
		Name:        "narrow_id",
		Description: "single transaction id with skewed slave latencies",
		Configure: func(cfg *config.Config) {
			cfg.IDCount = 1
			cfg.ReadLatency = []uint64{1, 20}
			cfg.WriteLatency = []uint64{20, 1}
		},
	}
}

// reorderInjection lets the interconnect break same-id ordering. A slow and
// a fast slave make a younger burst overtake an older one.
func reorderInjection() Benchmark {
	return Benchmark{
		Name:        "reorder_injection",
		Description: "same-id responses returned out of order",
		Configure: func(cfg *config.Config) {
			cfg.AllowReorder = true
			cfg.FailFast = true
			cfg.IDCount = 1
			cfg.GenRateRd = 50
			cfg.GenRateWr = 50
			cfg.ReadLatency = []uint64{1, 40}
			cfg.WriteLatency = []uint64{1, 40}
		},
		ExpectFailure: true,
		ExpectOutcome: master.Reordered,
	}
}

func setLanes(cfg *config.Config, rdMaster, rdSlave, wrMaster, wrSlave int) {
	cfg.RdMasterLanes = rdMaster
	cfg.RdSlaveLanes = rdSlave
	cfg.WrMasterLanes = wrMaster
	cfg.WrSlaveLanes = wrSlave
}
