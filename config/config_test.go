package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/config"
)

var _ = Describe("Config", func() {
	var c *config.Config

	BeforeEach(func() {
		c = config.DefaultConfig()
	})

	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(c.Validate()).To(Succeed())
		})

		It("should downsize masters onto slaves", func() {
			Expect(c.RdMaster().Lanes()).To(Equal(8))
			Expect(c.RdSlave().Lanes()).To(Equal(4))
			Expect(c.WrSlave().DataWidth).To(Equal(32))
		})

		It("should give each slave its own latency", func() {
			Expect(c.ReadLatencyOf(1)).To(Equal(uint64(5)))
			Expect(c.WriteLatencyOf(0)).To(Equal(uint64(3)))
			Expect(c.ReadLatencyOf(7)).To(Equal(uint64(1)))
		})

		It("should resolve the alternate address to the second slave", func() {
			Expect(c.AddressMap().MustResolve(c.AddrStride)).To(Equal(1))
		})
	})

	Describe("Validation", func() {
		It("should reject a map that does not match the slaves", func() {
			c.Slaves = 3
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should reject more slaves than response codes", func() {
			c.Slaves = 5
			c.AddrMap = nil
			for i := uint64(0); i < 5; i++ {
				c.AddrMap = append(c.AddrMap,
					addrmap.Range{Low: i << 16, High: i<<16 + 0xFFFF})
			}
			c.ReadLatency = nil
			c.WriteLatency = nil

			Expect(c.Validate()).To(MatchError(ContainSubstring("resp")))

			c.Bus.UseACE = true
			Expect(c.Validate()).To(Succeed())
		})

		It("should reject single lane buses", func() {
			c.WrSlaveLanes = 1
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should reject generation rates above 100", func() {
			c.GenRateWr = 101
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should reject more ids than the id field holds", func() {
			c.IDCount = 17
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should reject runs that walk off the address map", func() {
			c.GenCycles = 100000
			Expect(c.Validate()).To(MatchError(addrmap.ErrUnmapped))
		})
	})

	Describe("Clone", func() {
		It("should not share slices", func() {
			clone := c.Clone()
			clone.AddrMap[0].High = 0x1
			clone.ReadLatency[0] = 99

			Expect(c.AddrMap[0].High).To(Equal(uint64(0xFFFF)))
			Expect(c.ReadLatency[0]).To(Equal(uint64(2)))
		})
	})

	Describe("File I/O", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "axitb-config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			path := filepath.Join(tempDir, "bench.json")
			c.Masters = 3
			c.Seed = 42

			Expect(c.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Masters).To(Equal(3))
			Expect(loaded.Seed).To(Equal(int64(42)))
			Expect(loaded.AddrMap).To(Equal(c.AddrMap))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"masters": 4}`), 0644)).
				To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Masters).To(Equal(4))
			Expect(loaded.RdMasterLanes).To(Equal(8))
		})

		It("should return error for non-existent file", func() {
			_, err := config.LoadConfig("/nonexistent/path/bench.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).
				To(Succeed())

			_, err := config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
