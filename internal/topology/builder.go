package topology

// Builder accumulates elements and links and finalizes the path table in
// one call, mirroring the construction API described for the topology
// component: add switches, hosts, and accelerators, then add links, then
// build.
type Builder struct {
	net *Network
}

// NewBuilder creates a Builder over a fresh Network.
func NewBuilder() *Builder {
	return &Builder{net: NewNetwork()}
}

// AddSwitch adds a switch and returns its handle.
func (b *Builder) AddSwitch(name string) int {
	return b.net.AddSwitch(name)
}

// AddHost adds a host and returns its handle.
func (b *Builder) AddHost(name string) int {
	return b.net.AddHost(name)
}

// AddAccelerator adds an accelerator of the given model and returns its
// handle.
func (b *Builder) AddAccelerator(name, model string) int {
	return b.net.AddAccelerator(name, model)
}

// AddLink adds a directed link and returns its id.
func (b *Builder) AddLink(src, dst int, bwGbps, latUsec float64) (int, error) {
	return b.net.AddLink(src, dst, bwGbps, latUsec)
}

// Build computes the all-pairs shortest path table and returns the
// finished Network. The Builder must not be reused afterward.
func (b *Builder) Build() *Network {
	b.net.ComputeShortestPaths()
	return b.net
}
