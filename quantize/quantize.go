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

// Package quantize implements pattern-based annotation passes for
// post-training (PTQ) and quantization-aware-training (QAT) graph
// quantization.
//
// Given a traced computation graph (package ir), the quantizers identify
// recurring operator sub-patterns -- convolution, convolution followed by an
// activation, convolution feeding an elementwise add, linear layers, pooling
// -- and record, in a caller-owned side table (Annotations), how each tensor
// value flowing in and out of a pattern should be quantized: bit width,
// observer strategy, symmetric or asymmetric, per-tensor or per-channel.
//
// Pattern passes run in strict precedence order, most specific composite
// first, and claim every node they annotate: a claimed node is frozen and no
// later, coarser pass may touch it. This is how overlapping matches resolve
// -- a conv inside a conv→bn→relu chain is annotated once, by the fused
// pattern, never a second time by the plain conv pass.
//
// Two quantizers are provided, differing in pattern catalog and default
// numeric config: QNNPackQuantizer and X86InductorQuantizer. Typical use:
//
//	quantizer := quantize.NewQNNPackQuantizer().
//		SetGlobal(quantize.SymmetricQuantizationConfig(false, false))
//	anns := quantize.NewAnnotations()
//	if err := quantizer.Annotate(graph, anns); err != nil { ... }
//
// The passes are single-threaded and synchronous: later passes rely on the
// claims written by earlier ones, an inherent ordering dependency. The graph
// is only read; all writes go to the side table.
package quantize

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/quantize/ir"
)

// Quantizer drives the pattern annotators for one backend configuration.
type Quantizer interface {
	// Annotate runs the pattern passes over g, writing quantization
	// annotations into anns. Idempotent: re-running over the same side table
	// finds every pattern instance already claimed and writes nothing.
	Annotate(g *ir.Graph, anns *Annotations) error

	// Validate checks a fully annotated graph. Currently a no-op on both
	// provided quantizers; an extension point for structural validation.
	Validate(g *ir.Graph, anns *Annotations) error
}

// OperatorPattern is a sequence of operator identities describing one
// recognized (possibly composite) pattern, e.g. {Conv2d, ReLU}.
type OperatorPattern []ir.OpType

// OperatorConfig pairs a quantization config with the operator patterns
// supported under it.
type OperatorConfig struct {
	Config    QuantizationConfig
	Operators []OperatorPattern
}

// annotator is one annotation pass bound to a quantization config.
type annotator func(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error

// namedPass is one pattern pass in an orchestrator's precedence order.
type namedPass struct {
	name string
	fn   annotator
}

// annotatorRegistry maps each supported quantization config to the annotation
// pass implementing it. Explicitly constructed per quantizer instance.
type annotatorRegistry map[QuantizationConfig]annotator

// register panics on duplicates: registering two annotators for one config is
// a catalog-construction bug, not a runtime condition.
func (r annotatorRegistry) register(cfg QuantizationConfig, fn annotator) {
	if _, found := r[cfg]; found {
		exceptions.Panicf("annotator for quantization config %+v is already registered", cfg)
	}
	r[cfg] = fn
}
