package jsqps

// chain-graph.go converts a Generator into the data structures used by the gonum
// graph package, which has built-in strongly-connected-component discovery.
//
// A stationary distribution of a finite chain is unique exactly when the chain has
// one closed communicating class; states outside it are transient and carry no
// stationary mass.  Irreducibility is the special case where that class is everything,
// so the check asks only for the weaker condition.

import (
	"fmt"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"math"
)

// buildChainGraph returns a weighted directed graph with one node per state and
// an edge (weighted by the rate) for every positive off-diagonal entry of Q
func buildChainGraph(gen *Generator) *simple.WeightedDirectedGraph {
	chainGraph := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	size := gen.Space.Size()
	for idx := 0; idx < size; idx++ {
		chainGraph.AddNode(simple.Node(idx))
	}

	for idx := 0; idx < size; idx++ {
		for jdx := 0; jdx < size; jdx++ {
			if idx == jdx {
				continue
			}
			rate := gen.Q.At(idx, jdx)
			if rate > 0.0 {
				chainGraph.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(idx), T: simple.Node(jdx), W: rate})
			}
		}
	}
	return chainGraph
}

// ClosedClass returns the sorted state indices of the unique closed communicating
// class of the chain.  If the chain has more than one closed class its stationary
// distribution is not unique and ErrInvalidConfiguration is returned
func ClosedClass(gen *Generator) ([]int, error) {
	chainGraph := buildChainGraph(gen)
	components := topo.TarjanSCC(chainGraph)

	compOf := make(map[int64]int)
	for cdx, comp := range components {
		for _, node := range comp {
			compOf[node.ID()] = cdx
		}
	}

	// a component is open if some edge leaves it
	open := make([]bool, len(components))
	edges := chainGraph.Edges()
	for edges.Next() {
		edge := edges.Edge()
		from, to := compOf[edge.From().ID()], compOf[edge.To().ID()]
		if from != to {
			open[from] = true
		}
	}

	closed := []int{}
	for cdx := range components {
		if !open[cdx] {
			closed = append(closed, cdx)
		}
	}
	if len(closed) != 1 {
		return nil, configErr("chain", len(closed), fmt.Sprintf("closed communicating classes over %d states, need exactly 1", gen.Space.Size()))
	}

	class := convertNodeSeq(components[closed[0]])
	slices.Sort(class)
	return class, nil
}

// convertNodeSeq extracts the state indices from a sequence of graph nodes
func convertNodeSeq(nodes []graph.Node) []int {
	rtn := make([]int, 0, len(nodes))
	for _, node := range nodes {
		rtn = append(rtn, int(node.ID()))
	}
	return rtn
}
