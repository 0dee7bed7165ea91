package addrmap_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axitb/addrmap"
)

var _ = Describe("Map", func() {
	var m *addrmap.Map

	BeforeEach(func() {
		m = addrmap.New(
			addrmap.Range{Low: 0x0, High: 0xFFFF},
			addrmap.Range{Low: 0x10000, High: 0x1FFFF},
		)
	})

	It("should resolve addresses to their range index", func() {
		Expect(m.MustResolve(0x0)).To(Equal(0))
		Expect(m.MustResolve(0xFFFF)).To(Equal(0))
		Expect(m.MustResolve(0x10000)).To(Equal(1))
		Expect(m.MustResolve(0x1FFFF)).To(Equal(1))
	})

	It("should resolve the same address to the same destination", func() {
		Expect(m.MustResolve(0x12345)).To(Equal(m.MustResolve(0x12345)))
	})

	It("should let the first matching range win", func() {
		m.Ranges = append(m.Ranges, addrmap.Range{Low: 0x0, High: 0x2FFFF})
		Expect(m.MustResolve(0x100)).To(Equal(0))
		Expect(m.MustResolve(0x20000)).To(Equal(2))
	})

	It("should report unmapped addresses", func() {
		_, err := m.Resolve(0x20000)
		Expect(err).To(MatchError(addrmap.ErrUnmapped))
	})

	It("should panic on unmapped addresses", func() {
		Expect(func() { m.MustResolve(0x20000) }).To(Panic())
	})

	It("should reject inverted ranges", func() {
		m.Ranges[1] = addrmap.Range{Low: 0x2, High: 0x1}
		Expect(m.Validate()).NotTo(Succeed())
	})

	It("should reject empty maps", func() {
		Expect(addrmap.New().Validate()).NotTo(Succeed())
	})
})
