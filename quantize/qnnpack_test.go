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

package quantize_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/quantize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceConv adds one conv module instance (with bias) to g and returns the
// lowered convolution node.
func traceConv(g *ir.Graph, name string, sourceID int, input *ir.Node) (conv, w, b *ir.Node) {
	w = g.Parameter(name+".weight", ir.MakeShape(dtypes.Float32, 8, 3, 3, 3), ir.OpTypeConv2d, sourceID)
	b = g.Parameter(name+".bias", ir.MakeShape(dtypes.Float32, 8), ir.OpTypeConv2d, sourceID)
	conv = g.CallShaped(ir.OpTypeConvolution, ir.OpTypeConv2d, sourceID, name,
		ir.MakeShape(dtypes.Float32, 1, 8, 30, 30), input, w, b)
	return
}

func TestQNNPackAnnotateConvReLU(t *testing.T) {
	g := ir.New("conv_relu")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	conv, w, b := traceConv(g, "conv", 1, x)
	relu := g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 2, "relu", conv)
	g.Return(relu)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	quantizer := quantize.NewQNNPackQuantizer().SetGlobal(cfg)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantizer.Annotate(g, anns))
	require.NoError(t, quantizer.Validate(g, anns))

	// The convolution carries the input contracts and is claimed; its output
	// contract lives on the relu, the pattern-terminal node.
	convAnn := anns.Get(conv)
	require.NotNil(t, convAnn)
	assert.True(t, convAnn.Annotated)
	assert.Nil(t, convAnn.OutputQSpec)
	require.Len(t, convAnn.InputQSpecMap, 3)
	assert.Equal(t, cfg.Activation, convAnn.InputQSpecMap[x])
	assert.Equal(t, cfg.Weight, convAnn.InputQSpecMap[w])
	assert.Equal(t, cfg.Bias, convAnn.InputQSpecMap[b])

	reluAnn := anns.Get(relu)
	require.NotNil(t, reluAnn)
	assert.True(t, reluAnn.Annotated)
	require.NotNil(t, reluAnn.OutputQSpec)
	assert.Equal(t, cfg.Activation, *reluAnn.OutputQSpec)

	// Idempotence: a second run finds everything claimed and writes nothing.
	before := anns.Clone()
	require.NoError(t, quantizer.Annotate(g, anns))
	assert.Equal(t, before, anns)
}

func TestQNNPackAnnotateErrors(t *testing.T) {
	g := ir.New("empty")
	quantizer := quantize.NewQNNPackQuantizer()

	err := quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no global quantization config")

	quantizer.SetGlobal(quantize.SymmetricQuantizationConfig(false, false))
	err = quantizer.Annotate(g, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Annotations")

	// A config outside the annotator catalog is rejected up front.
	quantizer.SetGlobal(quantize.DefaultX86InductorQuantizationConfig())
	err = quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestQNNPackPrecedence(t *testing.T) {
	// A fused conv→relu chain followed by a standalone conv: the fused conv
	// must be claimed by the composite pass, the standalone one by the atomic
	// pass (and only it gets an output contract on the conv itself).
	g := ir.New("two_convs")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	fusedConv, _, _ := traceConv(g, "conv1", 1, x)
	relu := g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 2, "relu", fusedConv)
	w2 := g.Parameter("conv2.weight", ir.MakeShape(dtypes.Float32, 8, 8, 3, 3), ir.OpTypeConv2d, 3)
	plainConv := g.CallShaped(ir.OpTypeConvolution, ir.OpTypeConv2d, 3, "conv2",
		ir.MakeShape(dtypes.Float32, 1, 8, 28, 28), relu, w2)
	g.Return(plainConv)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	assert.Nil(t, anns.Get(fusedConv).OutputQSpec)
	require.NotNil(t, anns.Get(relu).OutputQSpec)

	plainAnn := anns.Get(plainConv)
	require.NotNil(t, plainAnn)
	require.NotNil(t, plainAnn.OutputQSpec)
	assert.Equal(t, cfg.Activation, *plainAnn.OutputQSpec)
	assert.Equal(t, cfg.Weight, plainAnn.InputQSpecMap[w2])
}

func TestQNNPackQATConvBatchNormReLU(t *testing.T) {
	g := ir.New("conv_bn_relu")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	conv, w, _ := traceConv(g, "conv", 1, x)
	bnWeight := g.Parameter("bn.weight", ir.MakeShape(dtypes.Float32, 8), ir.OpTypeBatchNorm2d, 2)
	bnBias := g.Parameter("bn.bias", ir.MakeShape(dtypes.Float32, 8), ir.OpTypeBatchNorm2d, 2)
	bn := g.Call(ir.OpTypeFunctionalBatchNorm, ir.OpTypeBatchNorm2d, 2, "bn", conv, bnWeight, bnBias)
	relu := g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 3, "relu", bn)
	g.Return(relu)

	cfg := quantize.SymmetricQuantizationConfig(false, true)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	// Conv carries input contracts, the relu the output contract.
	convAnn := anns.Get(conv)
	require.NotNil(t, convAnn)
	assert.Equal(t, cfg.Weight, convAnn.InputQSpecMap[w])
	assert.Nil(t, convAnn.OutputQSpec)
	require.NotNil(t, anns.Get(relu).OutputQSpec)
	assert.Equal(t, cfg.Activation, *anns.Get(relu).OutputQSpec)

	// The whole cluster is claimed, batchnorm internals included, so no later
	// pass reprocesses them.
	for _, n := range []*ir.Node{conv, bn, bnWeight, bnBias, relu} {
		require.NotNil(t, anns.Get(n), "node %s should be claimed", n)
		assert.True(t, anns.Get(n).Annotated, "node %s should be claimed", n)
	}
	// The batchnorm output carries no contract of its own: it is interior to
	// the fused pattern.
	assert.Nil(t, anns.Get(bn).OutputQSpec)
}

func TestQNNPackPTQIgnoresBatchNormChain(t *testing.T) {
	// Same conv→bn→relu shape but under PTQ: unfused batchnorm is not a
	// recognized pattern, so only the conv is annotated, atomically.
	g := ir.New("conv_bn_relu_ptq")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	conv, _, _ := traceConv(g, "conv", 1, x)
	bn := g.Call(ir.OpTypeFunctionalBatchNorm, ir.OpTypeBatchNorm2d, 2, "bn", conv)
	relu := g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 3, "relu", bn)
	g.Return(relu)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	convAnn := anns.Get(conv)
	require.NotNil(t, convAnn)
	require.NotNil(t, convAnn.OutputQSpec)
	assert.Nil(t, anns.Get(bn))
	assert.Nil(t, anns.Get(relu))
}

func TestQNNPackLinear(t *testing.T) {
	g := ir.New("linear")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 4, 8))
	w := g.Parameter("fc.weight", ir.MakeShape(dtypes.Float32, 16, 8), ir.OpTypeLinear, 1)
	b := g.Parameter("fc.bias", ir.MakeShape(dtypes.Float32, 16), ir.OpTypeLinear, 1)
	// Weight and bias argument order is deliberately swapped: the annotator
	// must tell them apart by rank, not position.
	linear := g.CallShaped(ir.OpTypeFunctionalLinear, ir.OpTypeLinear, 1, "fc",
		ir.MakeShape(dtypes.Float32, 4, 16), x, b, w)
	g.Return(linear)

	cfg := quantize.SymmetricQuantizationConfig(true, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	linAnn := anns.Get(linear)
	require.NotNil(t, linAnn)
	assert.Equal(t, cfg.Activation, linAnn.InputQSpecMap[x])
	require.NotNil(t, linAnn.OutputQSpec)
	assert.Equal(t, cfg.Activation, *linAnn.OutputQSpec)

	// Weight and bias carry their contracts as output specs on the parameter
	// nodes themselves.
	require.NotNil(t, anns.Get(w).OutputQSpec)
	assert.Equal(t, cfg.Weight, *anns.Get(w).OutputQSpec)
	require.NotNil(t, anns.Get(b).OutputQSpec)
	assert.Equal(t, cfg.Bias, *anns.Get(b).OutputQSpec)

	for _, n := range []*ir.Node{linear, w, b} {
		assert.True(t, anns.Get(n).Annotated)
	}
}

func TestQNNPackLinearWithoutWeight(t *testing.T) {
	g := ir.New("linear_no_weight")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 4, 8))
	b := g.Parameter("fc.bias", ir.MakeShape(dtypes.Float32, 16), ir.OpTypeLinear, 1)
	g.Return(g.CallShaped(ir.OpTypeFunctionalLinear, ir.OpTypeLinear, 1, "fc",
		ir.MakeShape(dtypes.Float32, 4, 16), x, b))

	quantizer := quantize.NewQNNPackQuantizer().
		SetGlobal(quantize.SymmetricQuantizationConfig(false, false))
	err := quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no weight found in linear pattern")
}

func TestQNNPackFunctionalLinearIsSkipped(t *testing.T) {
	// The functional form has no parameters inside its partition to
	// disambiguate, so it is left unannotated.
	g := ir.New("functional_linear")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 4, 8))
	w := g.Placeholder("w", ir.MakeShape(dtypes.Float32, 16, 8))
	g.Return(g.CallShaped(ir.OpTypeFunctionalLinear, ir.OpTypeFunctionalLinear, 1, "linear",
		ir.MakeShape(dtypes.Float32, 4, 16), x, w))

	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().
		SetGlobal(quantize.SymmetricQuantizationConfig(false, false)).
		Annotate(g, anns))
	assert.Zero(t, anns.Len())
}

func TestQNNPackMaxPool(t *testing.T) {
	g := ir.New("maxpool")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 8, 30, 30))
	pool := g.CallShaped(ir.OpTypeMaxPool2dWithIndices, ir.OpTypeMaxPool2d, 1, "pool",
		ir.MakeShape(dtypes.Float32, 1, 8, 15, 15), x)
	g.Return(pool)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	poolAnn := anns.Get(pool)
	require.NotNil(t, poolAnn)
	assert.True(t, poolAnn.Annotated)
	assert.Equal(t, cfg.Activation, poolAnn.InputQSpecMap[x])
	require.NotNil(t, poolAnn.OutputQSpec)
	assert.Equal(t, cfg.Activation, *poolAnn.OutputQSpec)
	assert.True(t, poolAnn.InputOutputShareObservers)
}

func TestQNNPackShapePreservingSharing(t *testing.T) {
	// Hardtanh, mean and adaptive-avgpool are shape preserving: input and
	// output carry the same activation contract and must share one observer.
	for _, tc := range []struct {
		name   string
		target ir.OpType
		source ir.OpType
	}{
		{"hardtanh", ir.OpTypeFunctionalHardtanh, ir.OpTypeHardtanh},
		{"mean", ir.OpTypeMean, ir.OpTypeMean},
		{"adaptive_avgpool2d", ir.OpTypeFunctionalAdaptiveAvgPool2d, ir.OpTypeAdaptiveAvgPool2d},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := ir.New(tc.name)
			x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 8, 30, 30))
			node := g.Call(tc.target, tc.source, 1, tc.name, x)
			g.Return(node)

			cfg := quantize.SymmetricQuantizationConfig(false, false)
			anns := quantize.NewAnnotations()
			require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

			ann := anns.Get(node)
			require.NotNil(t, ann)
			assert.True(t, ann.InputOutputShareObservers)
			assert.Equal(t, cfg.Activation, ann.InputQSpecMap[x])
			require.NotNil(t, ann.OutputQSpec)
			assert.Equal(t, cfg.Activation, *ann.OutputQSpec)
		})
	}
}

func TestQNNPackQATConvWithExtraConsumer(t *testing.T) {
	// For conv→bn to be fusable under QAT the conv result must feed the
	// batchnorm and nothing else; a second consumer is a structural error.
	g := ir.New("conv_bn_extra_user")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	conv, _, _ := traceConv(g, "conv", 1, x)
	bn := g.Call(ir.OpTypeFunctionalBatchNorm, ir.OpTypeBatchNorm2d, 2, "bn", conv)
	mean := g.Call(ir.OpTypeMean, ir.OpTypeMean, 3, "mean", conv)
	g.Return(bn, mean)

	quantizer := quantize.NewQNNPackQuantizer().
		SetGlobal(quantize.SymmetricQuantizationConfig(false, true))
	err := quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be consumed by the batchnorm only")
}

func TestQNNPackMultiOutputPartition(t *testing.T) {
	// Two call nodes traced from the same module instance, each externally
	// visible: the partition has two outputs, a fatal structural violation.
	g := ir.New("two_outputs")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 8, 30, 30))
	a := g.Call(ir.OpTypeFunctionalHardtanh, ir.OpTypeHardtanh, 1, "hardtanh_a", x)
	b := g.Call(ir.OpTypeFunctionalHardtanh, ir.OpTypeHardtanh, 1, "hardtanh_b", x)
	g.Return(a, b)

	quantizer := quantize.NewQNNPackQuantizer().
		SetGlobal(quantize.SymmetricQuantizationConfig(false, false))
	err := quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one output node")
}

func TestQNNPackConvReLUNonReLULowering(t *testing.T) {
	// A node traced from a relu module whose lowered target is not a relu
	// form is rejected, not silently skipped.
	g := ir.New("conv_fake_relu")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	conv, _, _ := traceConv(g, "conv", 1, x)
	relu := g.Call(ir.OpTypeMean, ir.OpTypeReLU, 2, "relu", conv)
	g.Return(relu)

	quantizer := quantize.NewQNNPackQuantizer().
		SetGlobal(quantize.SymmetricQuantizationConfig(false, false))
	err := quantizer.Annotate(g, quantize.NewAnnotations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a relu operator")
}

func TestQNNPackAdd(t *testing.T) {
	g := ir.New("add")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 8))
	y := g.Placeholder("y", ir.MakeShape(dtypes.Float32, 1, 8))
	add := g.Call(ir.OpTypeAdd, ir.OpTypeAdd, 1, "add", x, y)
	g.Return(add)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	ann := anns.Get(add)
	require.NotNil(t, ann)
	// One independent contract per operand edge.
	require.Len(t, ann.InputQSpecMap, 2)
	assert.Equal(t, cfg.Activation, ann.InputQSpecMap[x])
	assert.Equal(t, cfg.Activation, ann.InputQSpecMap[y])
	require.NotNil(t, ann.OutputQSpec)
}

func TestQNNPackAddReLU(t *testing.T) {
	g := ir.New("add_relu")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 8))
	y := g.Placeholder("y", ir.MakeShape(dtypes.Float32, 1, 8))
	add := g.Call(ir.OpTypeOperatorAdd, ir.OpTypeOperatorAdd, 1, "add", x, y)
	relu := g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 2, "relu", add)
	g.Return(relu)

	cfg := quantize.SymmetricQuantizationConfig(false, false)
	anns := quantize.NewAnnotations()
	require.NoError(t, quantize.NewQNNPackQuantizer().SetGlobal(cfg).Annotate(g, anns))

	addAnn := anns.Get(add)
	require.NotNil(t, addAnn)
	assert.True(t, addAnn.Annotated)
	require.Len(t, addAnn.InputQSpecMap, 2)
	// The output contract moves to the relu, the pattern-terminal node.
	assert.Nil(t, addAnn.OutputQSpec)
	require.NotNil(t, anns.Get(relu).OutputQSpec)
	assert.Equal(t, cfg.Activation, *anns.Get(relu).OutputQSpec)
}
