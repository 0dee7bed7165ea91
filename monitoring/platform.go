package monitoring

import (
	"github.com/sarchlab/axitb/timing/platform"
)

// RegisterPlatform registers the engine, components, channels, scoreboard
// and stop signal of a testbench.
func (m *Monitor) RegisterPlatform(p *platform.Platform) {
	m.RegisterEngine(p.Engine, p.Config.Freq())
	m.RegisterScoreboard(p.Scoreboard)
	m.RegisterStopper(p.Stop)

	for _, c := range p.Components() {
		m.RegisterComponent(c)
	}

	for _, c := range p.Channels() {
		m.RegisterChannel(c)
	}
}
