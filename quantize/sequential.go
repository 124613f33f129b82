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

package quantize

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/ir/match"
	"github.com/gomlx/quantize/types"
	"github.com/pkg/errors"
)

// EquivalentTypes maps an operator identity to the identities considered
// interchangeable for pattern-matching: the class-style module, its
// functional form, and in-place variants. Built once at quantizer
// construction and held by it -- never ambient package state.
type EquivalentTypes struct {
	classes map[ir.OpType][]ir.OpType
}

// NewEquivalentTypes builds a registry from equivalence classes. Each class
// is stored as a sorted members list for every member, so lookups are O(1)
// and deterministic. An operator appearing in two classes is a programming
// error and panics.
func NewEquivalentTypes(classes ...types.Set[ir.OpType]) *EquivalentTypes {
	e := &EquivalentTypes{classes: make(map[ir.OpType][]ir.OpType)}
	for _, class := range classes {
		members := make([]ir.OpType, 0, len(class))
		for member := range class {
			members = append(members, member)
		}
		slices.Sort(members)
		for _, member := range members {
			if _, found := e.classes[member]; found {
				exceptions.Panicf("operator %s registered in more than one equivalence class", member)
			}
			e.classes[member] = members
		}
	}
	return e
}

// DefaultEquivalentTypes returns the fixed registry of operator identities
// the quantizers treat as interchangeable.
func DefaultEquivalentTypes() *EquivalentTypes {
	return NewEquivalentTypes(
		types.SetWith(ir.OpTypeConv2d, ir.OpTypeFunctionalConv2d),
		types.SetWith(ir.OpTypeAdaptiveAvgPool2d, ir.OpTypeFunctionalAdaptiveAvgPool2d),
		types.SetWith(ir.OpTypeReLU, ir.OpTypeFunctionalReLU, ir.OpTypeFunctionalReLUInplace),
		types.SetWith(ir.OpTypeBatchNorm2d, ir.OpTypeFunctionalBatchNorm),
		types.SetWith(ir.OpTypeHardtanh, ir.OpTypeFunctionalHardtanh, ir.OpTypeFunctionalHardtanhInplace),
		types.SetWith(ir.OpTypeAdd, ir.OpTypeOperatorAdd, ir.OpTypeOperatorIAdd),
	)
}

// MatchingTypes returns t's equivalence class, t included; just {t} if t is
// not registered.
func (e *EquivalentTypes) MatchingTypes(t ir.OpType) []ir.OpType {
	if members, found := e.classes[t]; found {
		return members
	}
	return []ir.OpType{t}
}

// validSequence reports whether no two entries of the sequence have
// intersecting equivalence classes. A sequence like [Conv2d, FunctionalConv2d]
// is ambiguous: both entries would match the same partitions.
func (e *EquivalentTypes) validSequence(sequence []ir.OpType) bool {
	seen := types.MakeSet[ir.OpType]()
	for _, t := range sequence {
		matching := types.SetWith(e.MatchingTypes(t)...)
		if seen.Intersects(matching) {
			return false
		}
		for member := range matching {
			seen.Insert(member)
		}
	}
	return true
}

// FindSequentialPartitions finds every chain of source partitions matching
// the operator-type sequence: one partition per entry, consecutive partitions
// connected input→output in declaration order.
//
// A nil equiv uses DefaultEquivalentTypes. The sequence must have no two
// entries in the same equivalence class, else a configuration error is
// returned. All matching chains are returned -- a pattern may legitimately
// match multiple disjoint instances in one graph -- in the deterministic
// order induced by the graph's node ordering.
//
// The candidate enumeration is a cross product of per-entry partition lists:
// exponential in the worst case, fine in practice since real graphs yield few
// partitions per operator type.
func FindSequentialPartitions(g *ir.Graph, sequence []ir.OpType, equiv *EquivalentTypes) ([][]*match.SourcePartition, error) {
	if equiv == nil {
		equiv = DefaultEquivalentTypes()
	}
	if !equiv.validSequence(sequence) {
		return nil, errors.Errorf("invalid partition types %v: each type in the sequence must belong to a distinct equivalence class", sequence)
	}

	perEntry := make([][]*match.SourcePartition, 0, len(sequence))
	for _, t := range sequence {
		matching := equiv.MatchingTypes(t)
		bySource := match.GetSourcePartitions(g, matching)
		perEntry = append(perEntry, match.FlattenPartitions(bySource, matching))
	}

	var fused [][]*match.SourcePartition
	candidate := make([]*match.SourcePartition, len(sequence))
	var product func(entry int)
	product = func(entry int) {
		if entry == len(sequence) {
			if partitionsSequential(candidate) {
				fused = append(fused, slices.Clone(candidate))
			}
			return
		}
		for _, p := range perEntry[entry] {
			candidate[entry] = p
			product(entry + 1)
		}
	}
	product(0)
	return fused, nil
}

// partitionsSequential walks consecutive pairs and rejects the candidate at
// the first disconnected one.
func partitionsSequential(partitions []*match.SourcePartition) bool {
	var prev *match.SourcePartition
	for _, p := range partitions {
		if prev != nil && !match.CheckSubgraphsConnected(prev, p) {
			return false
		}
		prev = p
	}
	return true
}
