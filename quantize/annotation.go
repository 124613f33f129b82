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
	"github.com/gomlx/quantize/ir"
)

// Annotation is the quantization contract attached to exactly one graph node.
type Annotation struct {
	// InputQSpecMap maps each input-producing node to the spec required for
	// that edge. One spec per edge, not per operator: multi-input ops (add)
	// need independent specs per operand.
	InputQSpecMap map[*ir.Node]QuantizationSpec

	// OutputQSpec is the contract for the node's own output, if the node is
	// pattern-terminal.
	OutputQSpec *QuantizationSpec

	// InputOutputShareObservers requires input and output to reuse one
	// observer instance. Set for shape-preserving ops (pooling, hardtanh)
	// whose quantization parameters must not change across the op.
	InputOutputShareObservers bool

	// Annotated freezes the node: once true, no later annotator may touch it.
	Annotated bool
}

// Clone returns a deep copy of the annotation.
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	clone := &Annotation{
		InputOutputShareObservers: a.InputOutputShareObservers,
		Annotated:                 a.Annotated,
	}
	if a.InputQSpecMap != nil {
		clone.InputQSpecMap = make(map[*ir.Node]QuantizationSpec, len(a.InputQSpecMap))
		for node, spec := range a.InputQSpecMap {
			clone.InputQSpecMap[node] = spec
		}
	}
	if a.OutputQSpec != nil {
		spec := *a.OutputQSpec
		clone.OutputQSpec = &spec
	}
	return clone
}

// Annotations is the side table mapping graph nodes to their quantization
// annotation for the duration of the annotation passes. It is owned by the
// caller of Quantizer.Annotate: keeping it out of the nodes themselves makes
// ownership explicit and lets the graph be reused elsewhere unannotated.
type Annotations struct {
	records map[*ir.Node]*Annotation
}

// NewAnnotations creates an empty side table.
func NewAnnotations() *Annotations {
	return &Annotations{records: make(map[*ir.Node]*Annotation)}
}

// Len returns the number of nodes carrying an annotation record.
func (anns *Annotations) Len() int {
	return len(anns.records)
}

// Get returns the annotation of n, or nil if n carries none.
func (anns *Annotations) Get(n *ir.Node) *Annotation {
	return anns.records[n]
}

// Of returns the annotation of n, creating a default (empty, unclaimed) one
// if n carries none yet.
func (anns *Annotations) Of(n *ir.Node) *Annotation {
	a, found := anns.records[n]
	if !found {
		a = &Annotation{}
		anns.records[n] = a
	}
	return a
}

// SetInputQSpec requires spec for the edge input→n.
func (anns *Annotations) SetInputQSpec(n, input *ir.Node, spec QuantizationSpec) {
	a := anns.Of(n)
	if a.InputQSpecMap == nil {
		a.InputQSpecMap = make(map[*ir.Node]QuantizationSpec)
	}
	a.InputQSpecMap[input] = spec
}

// SetOutputQSpec requires spec for n's own output.
func (anns *Annotations) SetOutputQSpec(n *ir.Node, spec QuantizationSpec) {
	anns.Of(n).OutputQSpec = &spec
}

// IsAnyAnnotated returns whether any of the given nodes is already claimed by
// an earlier pattern pass. Nil nodes are ignored.
func (anns *Annotations) IsAnyAnnotated(nodes ...*ir.Node) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if a := anns.records[n]; a != nil && a.Annotated {
			return true
		}
	}
	return false
}

// MarkAnnotated claims every given node, freezing their annotations against
// later, coarser passes. Nil nodes are ignored.
func (anns *Annotations) MarkAnnotated(nodes ...*ir.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		anns.Of(n).Annotated = true
	}
}

// Clone returns a deep copy of the side table. Nodes are shared (they are
// handles into the graph), annotation records are copied.
func (anns *Annotations) Clone() *Annotations {
	clone := &Annotations{records: make(map[*ir.Node]*Annotation, len(anns.records))}
	for node, a := range anns.records {
		clone.records[node] = a.Clone()
	}
	return clone
}
