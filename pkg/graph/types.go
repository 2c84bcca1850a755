package graph

// NodeType represents the semantic type of a node in the fault tree graph.
type NodeType string

const (
	NodeGate  NodeType = "gate"
	NodeBasic NodeType = "basic"
	NodeHouse NodeType = "house"
)

// EdgeType represents the semantic relationship between two nodes.
type EdgeType string

const (
	EdgeFeeds EdgeType = "feeds" // child -> parent gate
)

// Node represents a vertex in the fault tree graph.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	FromID string   `json:"from_id"`
	ToID   string   `json:"to_id"`
	Type   EdgeType `json:"type"`
}

// Graph is the projected view of a fault tree model for visualization.
type Graph struct {
	Top   string           `json:"top"`
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates an empty fault tree graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(e *Edge) {
	g.Edges = append(g.Edges, e)
}
