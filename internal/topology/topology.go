// Package topology models the static network of hosts, switches, and
// accelerators a training plan runs over, and derives all-pairs shortest
// hop-count paths between every reachable pair of elements.
package topology

import (
	"fmt"

	"github.com/seojinpark/dtSim/pkg/collections"
	"github.com/seojinpark/dtSim/pkg/dterrors"
)

// Kind tags an Element's role in the fabric.
type Kind int

const (
	KindAccelerator Kind = iota
	KindHost
	KindSwitch
)

func (k Kind) String() string {
	switch k {
	case KindAccelerator:
		return "accelerator"
	case KindHost:
		return "host"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Element is a node in the fabric: an accelerator, host, or switch.
// Handles are assigned in creation order starting at 0 and double as the
// index into Network.elements.
type Element struct {
	Handle int
	Kind   Kind
	Name   string

	// Model and Rank are only meaningful for KindAccelerator: Model keys
	// into a profile.ProfileSet, Rank is the dense 0-based index used by
	// the rank-based accelerator-id resolution mode in plan loading.
	Model string
	Rank  int
}

// Link is a directed, point-to-point connection between two elements.
type Link struct {
	ID      int
	Src     int
	Dst     int
	BwGbps  float64
	LatUsec float64
}

// CalcXferTime returns the simulated transfer time for xferBytes over this
// link. The formula intentionally mixes units (microseconds + bytes over
// gigabits-per-second) to preserve the original implementation's behavior
// bit-for-bit.
func (l *Link) CalcXferTime(xferBytes float64) float64 {
	return l.LatUsec + xferBytes/l.BwGbps
}

// Network owns the elements and links of a fabric and, once
// ComputeShortestPaths has run, the all-pairs hop tables.
type Network struct {
	elements []*Element
	links    []*Link

	// adjacency[src] lists the links leaving src, in creation order,
	// for deterministic relaxation.
	adjacency [][]*Link

	// directLink[src][dst] holds the first direct link created between
	// that ordered pair.
	directLink map[[2]int]*Link

	// paths[src][dst] is the hop list from src to dst, first element
	// after src through dst inclusive. Absent for src==dst and for
	// unreachable pairs.
	paths map[int]map[int][]int

	// reached[src] is a bitset over element handles, set bit dst meaning
	// paths[src][dst] is already known. Checked during relaxation instead
	// of probing the paths map, and reused by Reachable.
	reached map[int]*collections.Bitset

	pathsReady bool
}

// NewNetwork creates an empty fabric.
func NewNetwork() *Network {
	return &Network{
		directLink: make(map[[2]int]*Link),
		paths:      make(map[int]map[int][]int),
	}
}

func (n *Network) addElement(kind Kind, name, model string) *Element {
	e := &Element{
		Handle: len(n.elements),
		Kind:   kind,
		Name:   name,
		Model:  model,
	}
	if kind == KindAccelerator {
		e.Rank = n.countAccelerators()
	}
	n.elements = append(n.elements, e)
	n.adjacency = append(n.adjacency, nil)
	return e
}

func (n *Network) countAccelerators() int {
	count := 0
	for _, e := range n.elements {
		if e.Kind == KindAccelerator {
			count++
		}
	}
	return count
}

// AddSwitch adds a switch element and returns its handle.
func (n *Network) AddSwitch(name string) int {
	return n.addElement(KindSwitch, name, "").Handle
}

// AddHost adds a host element and returns its handle.
func (n *Network) AddHost(name string) int {
	return n.addElement(KindHost, name, "").Handle
}

// AddAccelerator adds an accelerator element of the given model and
// returns its handle.
func (n *Network) AddAccelerator(name, model string) int {
	return n.addElement(KindAccelerator, name, model).Handle
}

// AddLink adds a directed link from src to dst and returns its id.
func (n *Network) AddLink(src, dst int, bwGbps, latUsec float64) (int, error) {
	if src < 0 || src >= len(n.elements) {
		return 0, dterrors.New(dterrors.CodeTopologyUnknownElement, "link references unknown src element").WithDetail(fmt.Sprintf("src=%d", src))
	}
	if dst < 0 || dst >= len(n.elements) {
		return 0, dterrors.New(dterrors.CodeTopologyUnknownElement, "link references unknown dst element").WithDetail(fmt.Sprintf("dst=%d", dst))
	}
	l := &Link{
		ID:      len(n.links),
		Src:     src,
		Dst:     dst,
		BwGbps:  bwGbps,
		LatUsec: latUsec,
	}
	n.links = append(n.links, l)
	n.adjacency[src] = append(n.adjacency[src], l)
	key := [2]int{src, dst}
	if _, ok := n.directLink[key]; !ok {
		n.directLink[key] = l
	}
	n.pathsReady = false
	return l.ID, nil
}

// Element returns the element with the given handle.
func (n *Network) Element(handle int) (*Element, error) {
	if handle < 0 || handle >= len(n.elements) {
		return nil, dterrors.New(dterrors.CodeTopologyUnknownElement, "unknown element handle").WithDetail(fmt.Sprintf("handle=%d", handle))
	}
	return n.elements[handle], nil
}

// Elements returns all elements in creation order. The returned slice must
// not be mutated by callers.
func (n *Network) Elements() []*Element {
	return n.elements
}

// Links returns all links in creation order. The returned slice must not
// be mutated by callers.
func (n *Network) Links() []*Link {
	return n.links
}

// Link returns the link with the given id.
func (n *Network) Link(id int) (*Link, error) {
	if id < 0 || id >= len(n.links) {
		return nil, dterrors.New(dterrors.CodeTopologyUnknownElement, "unknown link id").WithDetail(fmt.Sprintf("link=%d", id))
	}
	return n.links[id], nil
}

// DirectLink returns the direct link from src to dst, if any.
func (n *Network) DirectLink(src, dst int) (*Link, bool) {
	l, ok := n.directLink[[2]int{src, dst}]
	return l, ok
}

// Accelerators returns accelerator elements in rank order (creation
// order among accelerators).
func (n *Network) Accelerators() []*Element {
	out := make([]*Element, 0, n.countAccelerators())
	for _, e := range n.elements {
		if e.Kind == KindAccelerator {
			out = append(out, e)
		}
	}
	return out
}

// ComputeShortestPaths fills in the all-pairs shortest hop-count path
// table. Grounded on networkEditor.py's calcShortestPath: initialize
// direct links as one-hop paths, then relax by prepending a neighbor's
// hop onto each of the neighbor's known destinations, iterating up to
// len(elements) rounds and stopping early on a round with no updates.
//
// The "already have a path from s to r?" check that gates every relax
// is the hot path of this loop (it runs once per (s, neighbor, r)
// triple per round), so it is backed by a per-source collections.Bitset
// rather than a map probe: Test is a single word load and mask instead
// of a map hash/bucket walk.
func (n *Network) ComputeShortestPaths() {
	n.paths = make(map[int]map[int][]int)
	n.reached = make(map[int]*collections.Bitset, len(n.elements))
	for s := range n.elements {
		n.reached[s] = collections.NewBitset(len(n.elements))
	}

	for _, l := range n.links {
		if l.Src == l.Dst || n.reached[l.Src].Test(l.Dst) {
			continue
		}
		n.ensureDestMap(l.Src)
		n.paths[l.Src][l.Dst] = []int{l.Dst}
		n.reached[l.Src].Set(l.Dst)
	}

	for round := 0; round < len(n.elements); round++ {
		updated := false
		for s := range n.elements {
			for _, l := range n.adjacency[s] {
				neighbor := l.Dst
				if neighbor == s {
					continue
				}
				destsFromNeighbor := n.paths[neighbor]
				for r, hops := range destsFromNeighbor {
					if r == s || n.reached[s].Test(r) {
						continue
					}
					n.ensureDestMap(s)
					newPath := make([]int, 0, len(hops)+1)
					newPath = append(newPath, neighbor)
					newPath = append(newPath, hops...)
					n.paths[s][r] = newPath
					n.reached[s].Set(r)
					updated = true
				}
			}
		}
		if !updated {
			break
		}
	}

	n.pathsReady = true
}

func (n *Network) ensureDestMap(src int) {
	if n.paths[src] == nil {
		n.paths[src] = make(map[int][]int)
	}
}

// Path returns the hop list from src to dst: the first element after src
// through dst inclusive. Returns an error if unreachable, src==dst, or
// paths haven't been computed yet.
func (n *Network) Path(src, dst int) ([]int, error) {
	if !n.pathsReady {
		return nil, dterrors.New(dterrors.CodeTopologyUnreachable, "path table not computed")
	}
	if src == dst {
		return nil, dterrors.New(dterrors.CodeTopologyUnreachable, "no path for equal src/dst").WithDetail(fmt.Sprintf("%d", src))
	}
	dests, ok := n.paths[src]
	if !ok {
		return nil, dterrors.New(dterrors.CodeTopologyUnreachable, "src unreachable to any destination").WithDetail(fmt.Sprintf("src=%d", src))
	}
	hops, ok := dests[dst]
	if !ok {
		return nil, dterrors.New(dterrors.CodeTopologyUnreachable, "dst unreachable from src").WithDetail(fmt.Sprintf("src=%d dst=%d", src, dst))
	}
	return hops, nil
}

// Reachable reports, for a given source, the set of handles reachable
// from it as a bitset — the same one ComputeShortestPaths maintained
// during relaxation, for callers that need fast repeated membership
// tests over large fabrics instead of a Path call per candidate dst.
func (n *Network) Reachable(src int) *collections.Bitset {
	if bs, ok := n.reached[src]; ok {
		return bs
	}
	return collections.NewBitset(len(n.elements))
}
