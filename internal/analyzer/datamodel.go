package analyzer

import "fmt"

// Datamodel vocabulary for question parameters. These are the only analyzer
// symbols exposed to sandboxed query programs besides the session handle,
// so synthesized code can express flow and path constraints without any
// access to the rest of the process.

// HeaderConstraints restricts flows by packet header fields.
type HeaderConstraints struct {
	SrcIPs       string `json:"srcIps,omitempty"`
	DstIPs       string `json:"dstIps,omitempty"`
	IPProtocols  string `json:"ipProtocols,omitempty"`
	SrcPorts     string `json:"srcPorts,omitempty"`
	DstPorts     string `json:"dstPorts,omitempty"`
	Applications string `json:"applications,omitempty"`
}

// PathConstraints restricts where traced flows start and end.
type PathConstraints struct {
	StartLocation  string `json:"startLocation,omitempty"`
	EndLocation    string `json:"endLocation,omitempty"`
	TransitNodes   string `json:"transitLocations,omitempty"`
	ForbiddenNodes string `json:"forbiddenLocations,omitempty"`
}

// Interface names one interface on one node.
type Interface struct {
	Hostname string `json:"hostname"`
	Name     string `json:"interface"`
}

// String renders the interface in node[iface] form used by question params.
func (i Interface) String() string {
	return fmt.Sprintf("%s[%s]", i.Hostname, i.Name)
}

// Edge is a directed link between two interfaces.
type Edge struct {
	Node1 Interface `json:"node1"`
	Node2 Interface `json:"node2"`
}

// String renders the edge as node1[iface1] -> node2[iface2].
func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Node1, e.Node2)
}

// BgpRoute describes a BGP route for route-analysis questions.
type BgpRoute struct {
	Network           string   `json:"network"`
	AsPath            []int64  `json:"asPath,omitempty"`
	Communities       []string `json:"communities,omitempty"`
	LocalPreference   int64    `json:"localPreference,omitempty"`
	Metric            int64    `json:"metric,omitempty"`
	NextHopIP         string   `json:"nextHopIp,omitempty"`
	OriginatorIP      string   `json:"originatorIp,omitempty"`
	OriginType        string   `json:"originType,omitempty"`
	Protocol          string   `json:"protocol,omitempty"`
	SourceProtocol    string   `json:"srcProtocol,omitempty"`
	Weight            int64    `json:"weight,omitempty"`
}
