/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package ir holds the traced computation graph the quantization annotation
// passes consume: a directed dataflow graph of tensor operators produced by an
// upstream tracer.
//
// The main elements of the package are:
//
//   - Graph: an ordered list of nodes. Nodes are only created after their
//     arguments, so insertion order is a natural DAG ordering, and every walk
//     over Graph.Nodes() is deterministic.
//
//   - Node: a graph input (placeholder), a learned parameter, an operator
//     application or the output sink. Call nodes carry two operator
//     identities: Target, the lowered primitive they execute, and Source, the
//     module or functional call they were traced from. Source plus SourceID
//     (the module instance) is what the source-partition matcher groups by --
//     see ir/match.
//
//   - OpType / NodeKind: closed enumerations of the recognized operator
//     identities and node roles.
//
// The package deliberately has no opinion on quantization: annotations are
// kept out of the node objects, in a side table owned by the annotation pass
// (package quantize).
package ir

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
)

// Graph is a traced computation graph. It is built once by the tracer (or by
// tests, through the builder methods) and then only read by the annotation
// passes.
type Graph struct {
	id   uuid.UUID
	name string

	// nodes are only created when their arguments already exist, so this is a
	// natural DAG ordering of the graph. The matcher relies on this invariance
	// for deterministic partition ordering.
	nodes []*Node

	output *Node
}

// New creates an empty Graph with the given name.
func New(name string) *Graph {
	return &Graph{
		id:   uuid.New(),
		name: name,
	}
}

// Name of the graph.
func (g *Graph) Name() string {
	return g.name
}

// UUID of the graph, unique per trace, used to identify it in logs.
func (g *Graph) UUID() uuid.UUID {
	return g.id
}

// Nodes returns all nodes in insertion (DAG) order. The returned slice is
// owned by the graph and must not be modified.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Output returns the output sink node, or nil if Return was never called.
func (g *Graph) Output() *Node {
	return g.output
}

// newNode adds a new node to the graph and registers it as a user of each of
// its arguments.
func (g *Graph) newNode(kind NodeKind, target OpType, name string, shape Shape, args ...*Node) *Node {
	n := &Node{
		graph:  g,
		id:     NodeId(len(g.nodes)),
		name:   name,
		kind:   kind,
		target: target,
		shape:  shape,
		args:   args,
	}
	for _, arg := range args {
		if !arg.IsUsedBy(n) {
			arg.users = append(arg.users, n)
		}
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Placeholder adds a graph input with the given name and shape.
func (g *Graph) Placeholder(name string, shape Shape) *Node {
	return g.newNode(NodeKindPlaceholder, OpTypePlaceholder, name, shape)
}

// Parameter adds a learned tensor (weight, bias, ...) owned by the traced
// module identified by source and sourceID.
func (g *Graph) Parameter(name string, shape Shape, source OpType, sourceID int) *Node {
	n := g.newNode(NodeKindParameter, OpTypeParameter, name, shape)
	n.source = source
	n.sourceID = sourceID
	return n
}

// Call adds an operator application executing the target primitive, traced
// from the given source identity and instance. The result shape is taken from
// the first argument when the operator preserves it; use CallShaped otherwise.
func (g *Graph) Call(target, source OpType, sourceID int, name string, args ...*Node) *Node {
	var shape Shape
	if len(args) > 0 {
		shape = args[0].Shape()
	}
	return g.CallShaped(target, source, sourceID, name, shape, args...)
}

// CallShaped is Call with an explicit result shape.
func (g *Graph) CallShaped(target, source OpType, sourceID int, name string, shape Shape, args ...*Node) *Node {
	n := g.newNode(NodeKindCallFunction, target, name, shape, args...)
	n.source = source
	n.sourceID = sourceID
	return n
}

// Return adds the output sink collecting the graph results. It may be called
// at most once.
func (g *Graph) Return(results ...*Node) *Node {
	if g.output != nil {
		exceptions.Panicf("ir.Graph(%q).Return() called more than once", g.name)
	}
	g.output = g.newNode(NodeKindOutput, OpTypeOutput, "output", Shape{}, results...)
	return g.output
}

// String implements fmt.Stringer, printing one node per line.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Graph %q (%d nodes):\n", g.name, len(g.nodes))
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "\t%s\n", n)
	}
	return b.String()
}
