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

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/types"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultX86InductorQuantizationConfig returns the x86 default: asymmetric
// uint8 histogram-observed activations and per-channel symmetric int8
// weights (axis 0, matching a conv weight laid out (oc, ic, kh, kw)).
func DefaultX86InductorQuantizationConfig() QuantizationConfig {
	return QuantizationConfig{
		Activation: QuantizationSpec{
			DType:    dtypes.Uint8,
			QuantMin: 0,
			QuantMax: 255,
			Scheme:   QSchemePerTensorAffine,
			Observer: ObserverSpec{Kind: ObserverKindHistogram, Eps: observerEps},
		},
		Weight: QuantizationSpec{
			DType:       dtypes.Int8,
			QuantMin:    -128,
			QuantMax:    127,
			Scheme:      QSchemePerChannelSymmetric,
			ChannelAxis: 0,
			Observer:    ObserverSpec{Kind: ObserverKindPerChannelMinMax, Eps: observerEps},
		},
		Bias: QuantizationSpec{
			DType:    dtypes.Float32,
			Observer: ObserverSpec{Kind: ObserverKindPlaceholder},
		},
	}
}

// supportedX86InductorOperators: the x86 backend recognizes convolution and
// its unary/binary/binary+unary fusions.
func supportedX86InductorOperators() map[string][]OperatorPattern {
	return map[string][]OperatorPattern{
		"conv2d": {
			{ir.OpTypeConv2d},
			{ir.OpTypeFunctionalConv2d},
			// Conv ReLU.
			{ir.OpTypeConv2d, ir.OpTypeReLU},
			{ir.OpTypeConv2d, ir.OpTypeFunctionalReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeFunctionalReLU},
			// Conv Add.
			{ir.OpTypeConv2d, ir.OpTypeAdd},
			{ir.OpTypeConv2d, ir.OpTypeOperatorAdd},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeAdd},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeOperatorAdd},
			// Conv Add ReLU.
			{ir.OpTypeConv2d, ir.OpTypeAdd, ir.OpTypeReLU},
			{ir.OpTypeConv2d, ir.OpTypeAdd, ir.OpTypeFunctionalReLU},
			{ir.OpTypeConv2d, ir.OpTypeOperatorAdd, ir.OpTypeReLU},
			{ir.OpTypeConv2d, ir.OpTypeOperatorAdd, ir.OpTypeFunctionalReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeAdd, ir.OpTypeReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeAdd, ir.OpTypeFunctionalReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeOperatorAdd, ir.OpTypeReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeOperatorAdd, ir.OpTypeFunctionalReLU},
		},
	}
}

func supportedX86InductorConfigAndOperators() []OperatorConfig {
	var supported []OperatorConfig
	for _, cfg := range []QuantizationConfig{DefaultX86InductorQuantizationConfig()} {
		for _, patterns := range supportedX86InductorOperators() {
			supported = append(supported, OperatorConfig{Config: cfg, Operators: patterns})
		}
	}
	return supported
}

// X86InductorQuantizer annotates for the x86 inductor backend: a single
// asymmetric-activation config and conv-centric fusion patterns, including
// the binary (conv+add) and binary+unary (conv+add+relu) shapes QNNPack does
// not recognize.
//
// Not safe for concurrent use; an Annotate call exclusively owns the graph
// and side table for its duration.
type X86InductorQuantizer struct {
	globalConfig QuantizationConfig
	hasGlobal    bool

	// operatorTypeConfig records per-operator-type overrides. Accepted but
	// not yet consulted by Annotate; see QNNPackQuantizer.
	operatorTypeConfig map[ir.OpType]QuantizationConfig

	equiv      *EquivalentTypes
	annotators annotatorRegistry
	supported  []OperatorConfig
}

// Compile-time check.
var _ Quantizer = (*X86InductorQuantizer)(nil)

// NewX86InductorQuantizer creates an x86 inductor quantizer with its
// annotator catalog for the default config.
func NewX86InductorQuantizer() *X86InductorQuantizer {
	q := &X86InductorQuantizer{
		operatorTypeConfig: make(map[ir.OpType]QuantizationConfig),
		equiv:              DefaultEquivalentTypes(),
		annotators:         make(annotatorRegistry),
		supported:          supportedX86InductorConfigAndOperators(),
	}
	q.annotators.register(DefaultX86InductorQuantizationConfig(), q.annotateDefaultConfig)
	return q
}

// SupportedQuantizationConfigs returns the deduplicated configs this
// quantizer can annotate for, in catalog order.
func (q *X86InductorQuantizer) SupportedQuantizationConfigs() []QuantizationConfig {
	seen := types.MakeSet[QuantizationConfig]()
	var configs []QuantizationConfig
	for _, oc := range q.supported {
		if seen.Has(oc.Config) {
			continue
		}
		seen.Insert(oc.Config)
		configs = append(configs, oc.Config)
	}
	return configs
}

// SupportedOperatorsForConfig returns the operator patterns supported under
// cfg; a nil cfg returns the patterns of every supported config.
func (q *X86InductorQuantizer) SupportedOperatorsForConfig(cfg *QuantizationConfig) []OperatorPattern {
	var all []OperatorPattern
	for _, oc := range q.supported {
		if cfg == nil || oc.Config == *cfg {
			all = append(all, oc.Operators...)
		}
	}
	return all
}

// SupportedConfigAndOperators returns the full catalog.
func (q *X86InductorQuantizer) SupportedConfigAndOperators() []OperatorConfig {
	return slices.Clone(q.supported)
}

// SetGlobal sets the default quantization config applied across the whole
// graph. Returns q for chaining.
func (q *X86InductorQuantizer) SetGlobal(cfg QuantizationConfig) *X86InductorQuantizer {
	q.globalConfig = cfg
	q.hasGlobal = true
	return q
}

// SetConfigForOperatorType records a per-operator-type config override.
// The override is recorded but not yet consulted by Annotate, which applies
// only the global config.
func (q *X86InductorQuantizer) SetConfigForOperatorType(opType ir.OpType, cfg QuantizationConfig) *X86InductorQuantizer {
	q.operatorTypeConfig[opType] = cfg
	return q
}

// Annotate implements Quantizer, running the conv fusion passes in strict
// precedence order.
func (q *X86InductorQuantizer) Annotate(g *ir.Graph, anns *Annotations) error {
	if anns == nil {
		return errors.Errorf("X86InductorQuantizer.Annotate: nil Annotations side table")
	}
	if !q.hasGlobal {
		return errors.Errorf("X86InductorQuantizer.Annotate: no global quantization config set, call SetGlobal first")
	}
	annotate, found := q.annotators[q.globalConfig]
	if !found {
		return errors.Errorf("X86InductorQuantizer.Annotate: quantization config %+v is not supported", q.globalConfig)
	}
	klog.V(1).Infof("X86InductorQuantizer: annotating graph %q (uuid=%s, %d nodes)", g.Name(), g.UUID(), g.NumNodes())
	return annotate(g, q.globalConfig, anns)
}

// Validate implements Quantizer. Currently a no-op extension point.
func (q *X86InductorQuantizer) Validate(g *ir.Graph, anns *Annotations) error {
	return nil
}

func (q *X86InductorQuantizer) annotateDefaultConfig(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	passes := []namedPass{
		{"conv2d+add+relu", q.annotateConvBinaryUnary},
		{"conv2d+add", q.annotateConvBinary},
		{"conv2d+relu", q.annotateConvUnary},
		{"conv2d", annotateAtomicConv},
	}
	for _, pass := range passes {
		if err := pass.fn(g, cfg, anns); err != nil {
			return errors.WithMessagef(err, "annotating %s patterns", pass.name)
		}
	}
	return nil
}

// annotateConvBinaryUnary handles conv→add→relu: the add's extra (non-conv)
// operand is a second, distinct tensor input and receives its own
// independent activation spec.
func (q *X86InductorQuantizer) annotateConvBinaryUnary(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	fusedPartitions, err := FindSequentialPartitions(g,
		[]ir.OpType{ir.OpTypeConv2d, ir.OpTypeOperatorAdd, ir.OpTypeReLU}, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		convPartition, addPartition, reluPartition := fused[0], fused[1], fused[2]
		unaryNode, err := singleOutputNode(reluPartition)
		if err != nil {
			return err
		}
		binaryNode, err := singleOutputNode(addPartition)
		if err != nil {
			return err
		}
		convNode, err := singleOutputNode(convPartition)
		if err != nil {
			return err
		}

		convOperand, extraInputNode := binaryOperands(binaryNode, convNode)
		if convOperand == nil {
			continue
		}
		if extraInputNode == nil {
			return errors.Errorf("binary node %s has no extra input operand", binaryNode)
		}
		if !isConvolution(convNode) {
			// No conv node found to be fused with add.
			continue
		}
		if anns.IsAnyAnnotated(unaryNode, binaryNode, convNode) {
			continue
		}

		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.MarkAnnotated(convNode)
		anns.SetInputQSpec(binaryNode, extraInputNode, cfg.Activation)
		anns.MarkAnnotated(binaryNode)
		anns.SetOutputQSpec(unaryNode, cfg.Activation)
		anns.MarkAnnotated(unaryNode)
	}
	return nil
}

// annotateConvBinary handles conv→add.
func (q *X86InductorQuantizer) annotateConvBinary(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	fusedPartitions, err := FindSequentialPartitions(g,
		[]ir.OpType{ir.OpTypeConv2d, ir.OpTypeOperatorAdd}, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		convPartition, addPartition := fused[0], fused[1]
		binaryNode, err := singleOutputNode(addPartition)
		if err != nil {
			return err
		}
		convNode, err := singleOutputNode(convPartition)
		if err != nil {
			return err
		}

		convOperand, extraInputNode := binaryOperands(binaryNode, convNode)
		if convOperand == nil {
			continue
		}
		if extraInputNode == nil {
			return errors.Errorf("binary node %s has no extra input operand", binaryNode)
		}
		if !isConvolution(convNode) {
			continue
		}
		if anns.IsAnyAnnotated(binaryNode, convNode) {
			continue
		}

		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.MarkAnnotated(convNode)
		anns.SetInputQSpec(binaryNode, extraInputNode, cfg.Activation)
		anns.SetOutputQSpec(binaryNode, cfg.Activation)
		anns.MarkAnnotated(binaryNode)
	}
	return nil
}

// annotateConvUnary handles conv→relu. The conv anchor is taken from the
// relu's first operand; a mismatching target is a silent skip here, unlike
// the atomic conv pass.
func (q *X86InductorQuantizer) annotateConvUnary(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	fusedPartitions, err := FindSequentialPartitions(g,
		[]ir.OpType{ir.OpTypeConv2d, ir.OpTypeReLU}, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		reluPartition := fused[1]
		unaryNode, err := singleOutputNode(reluPartition)
		if err != nil {
			return err
		}
		if _, err = singleOutputNode(fused[0]); err != nil {
			return err
		}
		convNode := unaryNode.Arg(0)
		if !isConvolution(convNode) {
			continue
		}
		if anns.IsAnyAnnotated(unaryNode, convNode) {
			continue
		}
		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.MarkAnnotated(convNode)
		anns.SetOutputQSpec(unaryNode, cfg.Activation)
		anns.MarkAnnotated(unaryNode)
	}
	return nil
}
