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

// Package match finds source partitions: maximal connected clusters of graph
// nodes traced from the same operator identity (module class or functional
// call). It is the raw matching primitive the quantization annotators build
// their pattern discovery on.
package match

import (
	"fmt"

	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/types"
)

// SourcePartition is a maximal cluster of nodes traced from one instance of
// the Source operator identity.
//
// Partitions are created fresh per matching call and discarded after
// annotation; they are never persisted.
type SourcePartition struct {
	// Source is the operator identity the partition's nodes were traced from.
	Source ir.OpType

	// Nodes of the partition, in graph (DAG) order.
	Nodes []*ir.Node

	// InputNodes are the nodes outside the partition feeding into it, in the
	// order they are first consumed.
	InputNodes []*ir.Node

	// OutputNodes are the partition's nodes whose results are visible outside
	// it: consumed by an external node, or not consumed at all.
	OutputNodes []*ir.Node

	// Params are the learned-parameter nodes (weight, bias, ...) belonging to
	// the partition, when the source is a parameterized module.
	Params []*ir.Node

	nodeSet types.Set[*ir.Node]
}

// Contains returns whether n belongs to the partition.
func (p *SourcePartition) Contains(n *ir.Node) bool {
	return p.nodeSet.Has(n)
}

// String implements fmt.Stringer.
func (p *SourcePartition) String() string {
	return fmt.Sprintf("SourcePartition(%s, %d nodes, %d inputs, %d outputs)",
		p.Source, len(p.Nodes), len(p.InputNodes), len(p.OutputNodes))
}

type sourceKey struct {
	source   ir.OpType
	sourceID int
}

// GetSourcePartitions groups the graph's nodes by traced origin, for origins
// in wantedSources, and returns one partition per module/functional-call
// instance, keyed by source identity.
//
// Per-source partition lists follow the graph's DAG order, so repeated calls
// over the same graph return partitions in the same order.
func GetSourcePartitions(g *ir.Graph, wantedSources []ir.OpType) map[ir.OpType][]*SourcePartition {
	wanted := types.SetWith(wantedSources...)
	order := make([]sourceKey, 0)
	groups := make(map[sourceKey][]*ir.Node)
	for _, n := range g.Nodes() {
		kind := n.Kind()
		if kind != ir.NodeKindCallFunction && kind != ir.NodeKindParameter {
			continue
		}
		source := n.Source()
		if source == ir.OpTypeInvalid || !wanted.Has(source) {
			continue
		}
		key := sourceKey{source: source, sourceID: n.SourceID()}
		if _, found := groups[key]; !found {
			order = append(order, key)
		}
		groups[key] = append(groups[key], n)
	}

	partitions := make(map[ir.OpType][]*SourcePartition)
	for _, key := range order {
		p := newSourcePartition(key.source, groups[key])
		partitions[p.Source] = append(partitions[p.Source], p)
	}
	return partitions
}

// FlattenPartitions chains the per-source partition lists following the order
// of wantedSources, preserving the matcher's deterministic ordering.
func FlattenPartitions(bySource map[ir.OpType][]*SourcePartition, wantedSources []ir.OpType) []*SourcePartition {
	var flat []*SourcePartition
	for _, source := range wantedSources {
		flat = append(flat, bySource[source]...)
	}
	return flat
}

// CheckSubgraphsConnected reports whether some output of partition a is
// consumed by a node of partition b, i.e. whether a feeds b.
func CheckSubgraphsConnected(a, b *SourcePartition) bool {
	for _, out := range a.OutputNodes {
		for _, user := range out.Users() {
			if b.Contains(user) {
				return true
			}
		}
	}
	return false
}

func newSourcePartition(source ir.OpType, nodes []*ir.Node) *SourcePartition {
	p := &SourcePartition{
		Source:  source,
		Nodes:   nodes,
		nodeSet: types.SetWith(nodes...),
	}
	inputSeen := types.MakeSet[*ir.Node]()
	for _, n := range nodes {
		if n.Kind() == ir.NodeKindParameter {
			p.Params = append(p.Params, n)
		}
		for _, arg := range n.Args() {
			if p.nodeSet.Has(arg) || inputSeen.Has(arg) {
				continue
			}
			inputSeen.Insert(arg)
			p.InputNodes = append(p.InputNodes, arg)
		}
		if isPartitionOutput(p, n) {
			p.OutputNodes = append(p.OutputNodes, n)
		}
	}
	return p
}

// isPartitionOutput: a node's result is externally visible if some user lives
// outside the partition, or if nothing consumes it (a graph-terminal value).
func isPartitionOutput(p *SourcePartition, n *ir.Node) bool {
	if n.Kind() != ir.NodeKindCallFunction {
		return false
	}
	users := n.Users()
	if len(users) == 0 {
		return true
	}
	for _, user := range users {
		if !p.nodeSet.Has(user) {
			return true
		}
	}
	return false
}
