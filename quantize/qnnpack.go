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
	"sort"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/ir/match"
	"github.com/gomlx/quantize/types"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"
)

// SymmetricQuantizationConfig returns the QNNPack-style int8 symmetric
// config: per-tensor-affine histogram-observed activations, symmetric
// weights (per-tensor or per-channel along axis 0), float placeholder bias.
// Under QAT the observers become fused moving-average fake-quantizers.
func SymmetricQuantizationConfig(isPerChannel, isQAT bool) QuantizationConfig {
	actObserver := ObserverSpec{Kind: ObserverKindHistogram, Eps: observerEps}
	if isQAT {
		actObserver = ObserverSpec{Kind: ObserverKindFusedMovingAvgFakeQuant, Eps: observerEps}
	}
	activation := QuantizationSpec{
		DType:    dtypes.Int8,
		QuantMin: -128,
		QuantMax: 127,
		Scheme:   QSchemePerTensorAffine,
		Observer: actObserver,
	}

	weightScheme := QSchemePerTensorSymmetric
	if isPerChannel {
		weightScheme = QSchemePerChannelSymmetric
	}
	weightObserver := ObserverSpec{Kind: ObserverKindMinMax, Eps: observerEps}
	switch {
	case isQAT && isPerChannel:
		weightObserver = ObserverSpec{
			Kind:     ObserverKindFusedMovingAvgFakeQuant,
			Eps:      observerEps,
			Observer: ObserverKindMovingAveragePerChannelMinMax,
		}
	case isQAT:
		weightObserver = ObserverSpec{
			Kind:     ObserverKindFusedMovingAvgFakeQuant,
			Eps:      observerEps,
			Observer: ObserverKindMovingAverageMinMax,
		}
	case isPerChannel:
		weightObserver = ObserverSpec{Kind: ObserverKindPerChannelMinMax, Eps: observerEps}
	}
	weight := QuantizationSpec{
		DType:       dtypes.Int8,
		QuantMin:    -127,
		QuantMax:    127,
		Scheme:      weightScheme,
		ChannelAxis: 0,
		Observer:    weightObserver,
	}

	bias := QuantizationSpec{
		DType:    dtypes.Float32,
		Observer: ObserverSpec{Kind: ObserverKindPlaceholder},
	}
	return QuantizationConfig{
		Activation: activation,
		Weight:     weight,
		Bias:       bias,
		IsQAT:      isQAT,
	}
}

// supportedSymmetricQuantizedOperators lists, per operator family, the
// patterns the symmetric configs can quantize. Conv and linear handle relu
// and hardtanh fusion since those are clamp ops.
func supportedSymmetricQuantizedOperators() map[string][]OperatorPattern {
	return map[string][]OperatorPattern{
		"conv2d": {
			{ir.OpTypeConv2d, ir.OpTypeReLU},
			{ir.OpTypeConv2d, ir.OpTypeFunctionalReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeReLU},
			{ir.OpTypeFunctionalConv2d, ir.OpTypeFunctionalReLU},
		},
		"linear":  {{ir.OpTypeLinear}, {ir.OpTypeFunctionalLinear}},
		"add":     {{ir.OpTypeAdd}},
		"maxpool2d": {
			{ir.OpTypeMaxPool2d},
			{ir.OpTypeFunctionalMaxPool2d},
		},
		"hardtanh": {{ir.OpTypeHardtanh}, {ir.OpTypeFunctionalHardtanh}},
		"mean":     {{ir.OpTypeMean}},
		"adaptive_avgpool2d": {
			{ir.OpTypeAdaptiveAvgPool2d},
			{ir.OpTypeFunctionalAdaptiveAvgPool2d},
		},
	}
}

func supportedSymmetricConfigAndOperators() []OperatorConfig {
	var supported []OperatorConfig
	for _, cfg := range []QuantizationConfig{
		SymmetricQuantizationConfig(false, false),
		SymmetricQuantizationConfig(false, true),
		SymmetricQuantizationConfig(true, false),
		SymmetricQuantizationConfig(true, true),
	} {
		operators := supportedSymmetricQuantizedOperators()
		names := maps.Keys(operators)
		sort.Strings(names)
		for _, name := range names {
			supported = append(supported, OperatorConfig{Config: cfg, Operators: operators[name]})
		}
	}
	return supported
}

// QNNPackQuantizer annotates for the QNNPack backend: symmetric int8
// configs, with batchnorm fusion patterns under QAT and the full set of
// shape-preserving atomic ops.
//
// Not safe for concurrent use; an Annotate call exclusively owns the graph
// and side table for its duration.
type QNNPackQuantizer struct {
	globalConfig QuantizationConfig
	hasGlobal    bool

	// operatorTypeConfig records per-operator-type overrides. Accepted but
	// not yet consulted by Annotate, which only applies the global config;
	// an extension point, kept so callers' configuration survives a future
	// wiring.
	operatorTypeConfig map[ir.OpType]QuantizationConfig

	equiv      *EquivalentTypes
	annotators annotatorRegistry
	supported  []OperatorConfig
}

// Compile-time check.
var _ Quantizer = (*QNNPackQuantizer)(nil)

// NewQNNPackQuantizer creates a QNNPack quantizer with its annotator catalog
// for the four symmetric configs (per-tensor/per-channel × PTQ/QAT).
func NewQNNPackQuantizer() *QNNPackQuantizer {
	q := &QNNPackQuantizer{
		operatorTypeConfig: make(map[ir.OpType]QuantizationConfig),
		equiv:              DefaultEquivalentTypes(),
		annotators:         make(annotatorRegistry),
		supported:          supportedSymmetricConfigAndOperators(),
	}
	for _, cfg := range []QuantizationConfig{
		SymmetricQuantizationConfig(false, false),
		SymmetricQuantizationConfig(false, true),
		SymmetricQuantizationConfig(true, false),
		SymmetricQuantizationConfig(true, true),
	} {
		q.annotators.register(cfg, q.annotateSymmetricConfig)
	}
	return q
}

// SupportedQuantizationConfigs returns the deduplicated configs this
// quantizer can annotate for, in catalog order.
func (q *QNNPackQuantizer) SupportedQuantizationConfigs() []QuantizationConfig {
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
func (q *QNNPackQuantizer) SupportedOperatorsForConfig(cfg *QuantizationConfig) []OperatorPattern {
	var all []OperatorPattern
	for _, oc := range q.supported {
		if cfg == nil || oc.Config == *cfg {
			all = append(all, oc.Operators...)
		}
	}
	return all
}

// SupportedConfigAndOperators returns the full catalog.
func (q *QNNPackQuantizer) SupportedConfigAndOperators() []OperatorConfig {
	return slices.Clone(q.supported)
}

// SetGlobal sets the default quantization config applied across the whole
// graph. Returns q for chaining.
func (q *QNNPackQuantizer) SetGlobal(cfg QuantizationConfig) *QNNPackQuantizer {
	q.globalConfig = cfg
	q.hasGlobal = true
	return q
}

// SetConfigForOperatorType records a per-operator-type config override.
// The override is recorded but not yet consulted by Annotate, which applies
// only the global config.
func (q *QNNPackQuantizer) SetConfigForOperatorType(opType ir.OpType, cfg QuantizationConfig) *QNNPackQuantizer {
	q.operatorTypeConfig[opType] = cfg
	return q
}

// Annotate implements Quantizer, running the symmetric-config passes in
// strict precedence order.
func (q *QNNPackQuantizer) Annotate(g *ir.Graph, anns *Annotations) error {
	if anns == nil {
		return errors.Errorf("QNNPackQuantizer.Annotate: nil Annotations side table")
	}
	if !q.hasGlobal {
		return errors.Errorf("QNNPackQuantizer.Annotate: no global quantization config set, call SetGlobal first")
	}
	annotate, found := q.annotators[q.globalConfig]
	if !found {
		return errors.Errorf("QNNPackQuantizer.Annotate: quantization config %+v is not supported", q.globalConfig)
	}
	klog.V(1).Infof("QNNPackQuantizer: annotating graph %q (uuid=%s, %d nodes)", g.Name(), g.UUID(), g.NumNodes())
	return annotate(g, q.globalConfig, anns)
}

// Validate implements Quantizer. Currently a no-op extension point.
func (q *QNNPackQuantizer) Validate(g *ir.Graph, anns *Annotations) error {
	return nil
}

// annotateSymmetricConfig runs the pattern passes most-composite first, so
// that fused patterns claim their nodes before single-operator patterns see
// them.
func (q *QNNPackQuantizer) annotateSymmetricConfig(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	passes := []namedPass{
		{"linear", q.annotateLinear},
	}
	if cfg.IsQAT {
		// Unfused batchnorm after conv is a QAT-only shape: in PTQ the
		// batchnorm is assumed already fused into the conv weights.
		passes = append(passes,
			namedPass{"conv2d+batchnorm+relu", q.annotateConvBatchNormReLU},
			namedPass{"conv2d+batchnorm", q.annotateConvBatchNorm},
		)
	}
	passes = append(passes,
		namedPass{"conv2d+relu", q.annotateConvReLU},
		namedPass{"conv2d", annotateAtomicConv},
		namedPass{"maxpool2d", q.annotateMaxPool},
		namedPass{"add+relu", q.annotateAddReLU},
		namedPass{"add", q.annotateAdd},
		namedPass{"hardtanh", q.annotateHardtanh},
		namedPass{"mean", q.annotateMean},
		namedPass{"adaptive_avgpool2d", q.annotateAdaptiveAvgPool},
	)
	for _, pass := range passes {
		if err := pass.fn(g, cfg, anns); err != nil {
			return errors.WithMessagef(err, "annotating %s patterns", pass.name)
		}
	}
	return nil
}

// annotateConvBatchNorm handles conv→batchnorm chains (QAT only).
func (q *QNNPackQuantizer) annotateConvBatchNorm(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	return q.annotateConvBatchNormPattern(g, cfg, anns, false)
}

// annotateConvBatchNormReLU handles conv→batchnorm→relu chains (QAT only).
func (q *QNNPackQuantizer) annotateConvBatchNormReLU(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	return q.annotateConvBatchNormPattern(g, cfg, anns, true)
}

func (q *QNNPackQuantizer) annotateConvBatchNormPattern(g *ir.Graph, cfg QuantizationConfig, anns *Annotations, withReLU bool) error {
	sequence := []ir.OpType{ir.OpTypeConv2d, ir.OpTypeBatchNorm2d}
	if withReLU {
		sequence = append(sequence, ir.OpTypeReLU)
	}
	fusedPartitions, err := FindSequentialPartitions(g, sequence, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		convPartition, bnPartition := fused[0], fused[1]
		var reluNode *ir.Node
		if withReLU {
			reluNode, err = singleOutputNode(fused[2])
			if err != nil {
				return err
			}
		}
		convNode, err := singleOutputNode(convPartition)
		if err != nil {
			return err
		}
		if len(convNode.Users()) > 1 {
			return errors.Errorf("conv node %s must be consumed by the batchnorm only for it to be fusable", convNode)
		}
		bnOutputNode, err := singleOutputNode(bnPartition)
		if err != nil {
			return err
		}

		outputNode := bnOutputNode
		anchors := []*ir.Node{bnOutputNode, convNode}
		if withReLU {
			outputNode = reluNode
			anchors = []*ir.Node{reluNode, bnOutputNode, convNode}
		}
		if anns.IsAnyAnnotated(anchors...) {
			continue
		}

		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.SetOutputQSpec(outputNode, cfg.Activation)
		// Claim the whole cluster, not just the anchors, so later coarser
		// passes never reprocess internal nodes.
		claimed := slices.Clone(convPartition.Nodes)
		claimed = append(claimed, bnPartition.Nodes...)
		if withReLU {
			claimed = append(claimed, fused[2].Nodes...)
		}
		anns.MarkAnnotated(claimed...)
	}
	return nil
}

func (q *QNNPackQuantizer) annotateConvReLU(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	fusedPartitions, err := FindSequentialPartitions(g, []ir.OpType{ir.OpTypeConv2d, ir.OpTypeReLU}, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		convPartition, reluPartition := fused[0], fused[1]
		reluNode, err := singleOutputNode(reluPartition)
		if err != nil {
			return err
		}
		convNode, err := singleOutputNode(convPartition)
		if err != nil {
			return err
		}
		if err = checkConvolution(convNode); err != nil {
			return err
		}
		if !isReLU(reluNode) {
			return errors.Errorf("node %s is not a relu operator", reluNode)
		}
		if anns.IsAnyAnnotated(reluNode, convNode) {
			continue
		}
		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.SetOutputQSpec(reluNode, cfg.Activation)
		anns.MarkAnnotated(convNode, reluNode)
	}
	return nil
}

func (q *QNNPackQuantizer) annotateLinear(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	sources := []ir.OpType{ir.OpTypeLinear, ir.OpTypeFunctionalLinear}
	bySource := match.GetSourcePartitions(g, sources)
	// Only the class-style module form is handled: the functional form has no
	// parameter nodes inside its partition to disambiguate.
	for _, p := range bySource[ir.OpTypeLinear] {
		if len(p.InputNodes) == 0 {
			return errors.Errorf("linear partition has no input node")
		}
		actNode := p.InputNodes[0]
		if len(p.OutputNodes) == 0 {
			return errors.Errorf("linear partition has no output node")
		}
		outputNode := p.OutputNodes[0]

		// Weight and bias are told apart by tensor rank, not position.
		var weightNode, biasNode *ir.Node
		for _, param := range p.Params {
			switch param.Rank() {
			case 2:
				weightNode = param
			case 1:
				biasNode = param
			}
		}
		if weightNode == nil {
			return errors.Errorf("no weight found in linear pattern")
		}

		// Find the use of the activation node within the matched pattern.
		var actUseNode *ir.Node
		for _, n := range p.Nodes {
			if actNode.IsUsedBy(n) {
				actUseNode = n
				break
			}
		}
		if actUseNode == nil {
			return errors.Errorf("could not find a user of the activation node within the matched linear pattern")
		}

		if !anns.IsAnyAnnotated(actUseNode) {
			anns.SetInputQSpec(actUseNode, actNode, cfg.Activation)
		}
		if biasNode != nil && !anns.IsAnyAnnotated(biasNode) {
			anns.SetOutputQSpec(biasNode, cfg.Bias)
		}
		if !anns.IsAnyAnnotated(weightNode) {
			anns.SetOutputQSpec(weightNode, cfg.Weight)
		}
		if !anns.IsAnyAnnotated(outputNode) {
			anns.SetOutputQSpec(outputNode, cfg.Activation)
		}
		anns.MarkAnnotated(p.Nodes...)
	}
	return nil
}

func (q *QNNPackQuantizer) annotateMaxPool(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	sources := []ir.OpType{ir.OpTypeMaxPool2d, ir.OpTypeFunctionalMaxPool2d}
	partitions := match.FlattenPartitions(match.GetSourcePartitions(g, sources), sources)
	for _, p := range partitions {
		outputNode, err := singleOutputNode(p)
		if err != nil {
			return err
		}
		var maxPoolNode *ir.Node
		for _, n := range p.Nodes {
			if n.Target() == ir.OpTypeMaxPool2dWithIndices {
				maxPoolNode = n
			}
		}
		if maxPoolNode == nil {
			return errors.Errorf("no max-pool-with-indices node found in maxpool partition")
		}
		if anns.IsAnyAnnotated(outputNode, maxPoolNode) {
			continue
		}
		inputAct := maxPoolNode.Arg(0)
		if inputAct == nil {
			return errors.Errorf("maxpool node %s has no input activation argument", maxPoolNode)
		}
		anns.SetInputQSpec(maxPoolNode, inputAct, cfg.Activation)
		anns.MarkAnnotated(maxPoolNode)
		anns.SetOutputQSpec(outputNode, cfg.Activation)
		anns.Of(outputNode).InputOutputShareObservers = true
		anns.MarkAnnotated(outputNode)
	}
	return nil
}

// annotateIOObsSharingOp annotates a shape-preserving op whose input and
// output must reuse one observer: quantization parameters must not change
// across an op that doesn't alter the numeric distribution, and sharing
// halves the observer count during calibration.
func (q *QNNPackQuantizer) annotateIOObsSharingOp(g *ir.Graph, cfg QuantizationConfig, anns *Annotations, source ir.OpType) error {
	sources := []ir.OpType{source}
	partitions := match.FlattenPartitions(match.GetSourcePartitions(g, sources), sources)
	for _, p := range partitions {
		node, err := singleOutputNode(p)
		if err != nil {
			return err
		}
		if anns.IsAnyAnnotated(node) {
			continue
		}
		inputAct := node.Arg(0)
		if inputAct == nil {
			return errors.Errorf("%s node %s has no input activation argument", source, node)
		}
		anns.SetInputQSpec(node, inputAct, cfg.Activation)
		anns.SetOutputQSpec(node, cfg.Activation)
		anns.Of(node).InputOutputShareObservers = true
		anns.MarkAnnotated(node)
	}
	return nil
}

func (q *QNNPackQuantizer) annotateHardtanh(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	return q.annotateIOObsSharingOp(g, cfg, anns, ir.OpTypeHardtanh)
}

func (q *QNNPackQuantizer) annotateMean(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	return q.annotateIOObsSharingOp(g, cfg, anns, ir.OpTypeMean)
}

func (q *QNNPackQuantizer) annotateAdaptiveAvgPool(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	return q.annotateIOObsSharingOp(g, cfg, anns, ir.OpTypeAdaptiveAvgPool2d)
}

func (q *QNNPackQuantizer) annotateAddReLU(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	fusedPartitions, err := FindSequentialPartitions(g, []ir.OpType{ir.OpTypeAdd, ir.OpTypeReLU}, q.equiv)
	if err != nil {
		return err
	}
	for _, fused := range fusedPartitions {
		addPartition, reluPartition := fused[0], fused[1]
		reluNode, err := singleOutputNode(reluPartition)
		if err != nil {
			return err
		}
		addNode, err := singleOutputNode(addPartition)
		if err != nil {
			return err
		}
		if anns.IsAnyAnnotated(reluNode, addNode) {
			continue
		}
		// Each operand edge gets its own, independent activation spec.
		for idx := 0; idx < 2; idx++ {
			if operand := addNode.Arg(idx); operand != nil {
				anns.SetInputQSpec(addNode, operand, cfg.Activation)
			}
		}
		anns.MarkAnnotated(addNode)
		anns.SetOutputQSpec(reluNode, cfg.Activation)
		anns.MarkAnnotated(reluNode)
	}
	return nil
}

func (q *QNNPackQuantizer) annotateAdd(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	sources := []ir.OpType{ir.OpTypeOperatorAdd, ir.OpTypeAdd}
	partitions := match.FlattenPartitions(match.GetSourcePartitions(g, sources), sources)
	for _, p := range partitions {
		addNode, err := singleOutputNode(p)
		if err != nil {
			return err
		}
		if anns.IsAnyAnnotated(addNode) {
			continue
		}
		for idx := 0; idx < 2; idx++ {
			if operand := addNode.Arg(idx); operand != nil {
				anns.SetInputQSpec(addNode, operand, cfg.Activation)
			}
		}
		anns.SetOutputQSpec(addNode, cfg.Activation)
		anns.MarkAnnotated(addNode)
	}
	return nil
}
