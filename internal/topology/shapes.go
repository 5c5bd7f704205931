package topology

import "fmt"

// BuildSingleSwitchFabric builds a single switch connecting gpuCount
// accelerators, each with a bidirectional link pair of the given
// bandwidth/latency. Grounded on networkEditor.py's buildSimpleNetwork,
// assembled through Builder so construction and path-table finalization
// go through the same seam cmd/dtsim-service's config-driven topologies
// would.
func BuildSingleSwitchFabric(gpuCount int, model string, bwGbps, latUsec float64) (*Network, error) {
	b := NewBuilder()
	sw := b.AddSwitch("switch0")

	for i := 0; i < gpuCount; i++ {
		gpu := b.AddAccelerator(fmt.Sprintf("gpu%d", i), model)
		if _, err := b.AddLink(gpu, sw, bwGbps, latUsec); err != nil {
			return nil, err
		}
		if _, err := b.AddLink(sw, gpu, bwGbps, latUsec); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}

// BuildHostFabric builds hostCount hosts, each hosting gpusPerHost
// accelerators behind a per-host NIC-to-ToR link pair, all hosts hanging
// off a single top-of-rack switch. Grounded on networkEditor.py's
// buildHostAndGpuNetwork.
func BuildHostFabric(hostCount, gpusPerHost int, model string, gpuBwGbps, gpuLatUsec, hostToTorBwGbps, hostToTorLatUsec float64) (*Network, error) {
	b := NewBuilder()
	tor := b.AddSwitch("tor")

	for h := 0; h < hostCount; h++ {
		host := b.AddHost(fmt.Sprintf("host%d", h))
		if _, err := b.AddLink(host, tor, hostToTorBwGbps, hostToTorLatUsec); err != nil {
			return nil, err
		}
		if _, err := b.AddLink(tor, host, hostToTorBwGbps, hostToTorLatUsec); err != nil {
			return nil, err
		}

		for g := 0; g < gpusPerHost; g++ {
			gpu := b.AddAccelerator(fmt.Sprintf("host%d-gpu%d", h, g), model)
			if _, err := b.AddLink(gpu, host, gpuBwGbps, gpuLatUsec); err != nil {
				return nil, err
			}
			if _, err := b.AddLink(host, gpu, gpuBwGbps, gpuLatUsec); err != nil {
				return nil, err
			}
		}
	}

	return b.Build(), nil
}
