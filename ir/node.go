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

package ir

import (
	"fmt"
	"strings"
)

// NodeId is a unique identifier of a Node within its Graph, dense from 0 in
// insertion order.
type NodeId int

// InvalidNodeId is returned when no node is available.
const InvalidNodeId = NodeId(-1)

// Node is one value in the traced dataflow graph: a graph input, a learned
// parameter, an operator application or the output sink.
//
// Nodes carry no annotation metadata: quantization annotations live in a side
// table owned by whoever runs the annotation pass (see package quantize), so
// the graph can be shared or reused without aliasing surprises.
type Node struct {
	graph *Graph
	id    NodeId
	name  string
	kind  NodeKind
	shape Shape

	// target is the lowered primitive this node executes (CallFunction nodes),
	// or the structural OpType for placeholders/parameters/outputs.
	target OpType

	// source and sourceID identify the module or functional call this node was
	// traced from: source is the operator identity, sourceID the instance.
	// Nodes traced from the same module instance share a sourceID.
	source   OpType
	sourceID int

	// args are the ordered incoming edges of the computation graph.
	args []*Node

	// users are the nodes consuming this node's result, in insertion order.
	users []*Node
}

// Graph that holds this Node.
func (n *Node) Graph() *Graph {
	if n == nil {
		return nil
	}
	return n.graph
}

// Id is the unique id of this node within the Graph.
func (n *Node) Id() NodeId {
	if n == nil {
		return InvalidNodeId
	}
	return n.id
}

// Name of the node, unique within the graph, assigned by the tracer.
func (n *Node) Name() string {
	return n.name
}

// Kind is the structural role of the node.
func (n *Node) Kind() NodeKind {
	if n == nil {
		return NodeKindInvalid
	}
	return n.kind
}

// Target is the lowered primitive operator the node executes.
func (n *Node) Target() OpType {
	if n == nil {
		return OpTypeInvalid
	}
	return n.target
}

// Source is the operator identity (module class or functional call) the node
// was traced from, or OpTypeInvalid if the node has no traced origin.
func (n *Node) Source() OpType {
	if n == nil {
		return OpTypeInvalid
	}
	return n.source
}

// SourceID is the instance id of the traced origin: nodes belonging to the
// same traced module instance share it.
func (n *Node) SourceID() int {
	return n.sourceID
}

// Shape of the node's value.
func (n *Node) Shape() Shape {
	if n == nil {
		return Shape{}
	}
	return n.shape
}

// Rank returns the rank of the node's shape.
func (n *Node) Rank() int {
	return n.shape.Rank()
}

// Args are the ordered incoming edges. The returned slice is owned by the
// node and must not be modified.
func (n *Node) Args() []*Node {
	return n.args
}

// NumArgs returns the number of incoming edges.
func (n *Node) NumArgs() int {
	return len(n.args)
}

// Arg returns the idx-th incoming edge, or nil if out of range. Optional
// trailing arguments (a conv without bias) simply aren't there.
func (n *Node) Arg(idx int) *Node {
	if n == nil || idx < 0 || idx >= len(n.args) {
		return nil
	}
	return n.args[idx]
}

// Users are the nodes consuming this node's result, in insertion order. The
// returned slice is owned by the node and must not be modified.
func (n *Node) Users() []*Node {
	return n.users
}

// IsUsedBy returns whether user consumes this node's result.
func (n *Node) IsUsedBy(user *Node) bool {
	for _, u := range n.users {
		if u == user {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%%%d:%s=%s", n.id, n.name, n.target)
	if n.source != OpTypeInvalid {
		fmt.Fprintf(&b, "<%s#%d>", n.source, n.sourceID)
	}
	if len(n.args) > 0 {
		argNames := make([]string, 0, len(n.args))
		for _, arg := range n.args {
			argNames = append(argNames, arg.name)
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(argNames, ", "))
	}
	return b.String()
}
