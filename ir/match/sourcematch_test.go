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

package match_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/quantize/ir"
	"github.com/gomlx/quantize/ir/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildConvReLUGraph traces y = relu(conv2d(x, w, b)).
func buildConvReLUGraph() (g *ir.Graph, x, w, b, conv, relu *ir.Node) {
	g = ir.New("conv_relu")
	x = g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	w = g.Parameter("conv.weight", ir.MakeShape(dtypes.Float32, 8, 3, 3, 3), ir.OpTypeConv2d, 1)
	b = g.Parameter("conv.bias", ir.MakeShape(dtypes.Float32, 8), ir.OpTypeConv2d, 1)
	conv = g.CallShaped(ir.OpTypeConvolution, ir.OpTypeConv2d, 1, "conv",
		ir.MakeShape(dtypes.Float32, 1, 8, 30, 30), x, w, b)
	relu = g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 2, "relu", conv)
	g.Return(relu)
	return
}

func TestGetSourcePartitions(t *testing.T) {
	g, x, w, b, conv, relu := buildConvReLUGraph()

	bySource := match.GetSourcePartitions(g, []ir.OpType{ir.OpTypeConv2d, ir.OpTypeReLU})
	require.Len(t, bySource, 2)

	convParts := bySource[ir.OpTypeConv2d]
	require.Len(t, convParts, 1)
	convPart := convParts[0]
	assert.Equal(t, ir.OpTypeConv2d, convPart.Source)
	assert.ElementsMatch(t, []*ir.Node{w, b, conv}, convPart.Nodes)
	assert.Equal(t, []*ir.Node{x}, convPart.InputNodes)
	assert.Equal(t, []*ir.Node{conv}, convPart.OutputNodes)
	assert.ElementsMatch(t, []*ir.Node{w, b}, convPart.Params)
	assert.True(t, convPart.Contains(conv))
	assert.False(t, convPart.Contains(relu))

	reluParts := bySource[ir.OpTypeReLU]
	require.Len(t, reluParts, 1)
	reluPart := reluParts[0]
	assert.Equal(t, []*ir.Node{relu}, reluPart.Nodes)
	assert.Equal(t, []*ir.Node{conv}, reluPart.InputNodes)
	assert.Equal(t, []*ir.Node{relu}, reluPart.OutputNodes)
	assert.Empty(t, reluPart.Params)

	// Unrequested sources are not reported.
	assert.Empty(t, match.GetSourcePartitions(g, []ir.OpType{ir.OpTypeLinear}))
}

func TestGetSourcePartitionsSplitsInstances(t *testing.T) {
	// Two different conv module instances must yield two partitions.
	g := ir.New("two_convs")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 1, 3, 32, 32))
	w1 := g.Parameter("conv1.weight", ir.MakeShape(dtypes.Float32, 8, 3, 3, 3), ir.OpTypeConv2d, 1)
	conv1 := g.CallShaped(ir.OpTypeConvolution, ir.OpTypeConv2d, 1, "conv1",
		ir.MakeShape(dtypes.Float32, 1, 8, 30, 30), x, w1)
	w2 := g.Parameter("conv2.weight", ir.MakeShape(dtypes.Float32, 8, 8, 3, 3), ir.OpTypeConv2d, 2)
	conv2 := g.CallShaped(ir.OpTypeConvolution, ir.OpTypeConv2d, 2, "conv2",
		ir.MakeShape(dtypes.Float32, 1, 8, 28, 28), conv1, w2)
	g.Return(conv2)

	bySource := match.GetSourcePartitions(g, []ir.OpType{ir.OpTypeConv2d})
	parts := bySource[ir.OpTypeConv2d]
	require.Len(t, parts, 2)
	// Deterministic: graph (DAG) order.
	assert.Equal(t, []*ir.Node{conv1}, parts[0].OutputNodes)
	assert.Equal(t, []*ir.Node{conv2}, parts[1].OutputNodes)
}

func TestFlattenPartitions(t *testing.T) {
	g, _, _, _, conv, relu := buildConvReLUGraph()
	sources := []ir.OpType{ir.OpTypeReLU, ir.OpTypeConv2d}
	flat := match.FlattenPartitions(match.GetSourcePartitions(g, sources), sources)
	require.Len(t, flat, 2)
	// Requested-source order is preserved.
	assert.Equal(t, []*ir.Node{relu}, flat[0].OutputNodes)
	assert.Equal(t, []*ir.Node{conv}, flat[1].OutputNodes)
}

func TestCheckSubgraphsConnected(t *testing.T) {
	g, _, _, _, _, _ := buildConvReLUGraph()
	// Unconnected second chain.
	y := g.Placeholder("y", ir.MakeShape(dtypes.Float32, 1, 8, 30, 30))
	g.Call(ir.OpTypeFunctionalReLU, ir.OpTypeReLU, 3, "relu2", y)

	bySource := match.GetSourcePartitions(g, []ir.OpType{ir.OpTypeConv2d, ir.OpTypeReLU})
	convPart := bySource[ir.OpTypeConv2d][0]
	reluParts := bySource[ir.OpTypeReLU]
	require.Len(t, reluParts, 2)

	assert.True(t, match.CheckSubgraphsConnected(convPart, reluParts[0]))
	assert.False(t, match.CheckSubgraphsConnected(convPart, reluParts[1]))
	assert.False(t, match.CheckSubgraphsConnected(reluParts[0], convPart))
}

func TestPartitionOutputWithoutUsers(t *testing.T) {
	// A pattern-terminal node with no consumers at all is still an output.
	g := ir.New("dangling")
	x := g.Placeholder("x", ir.MakeShape(dtypes.Float32, 4))
	mean := g.Call(ir.OpTypeMean, ir.OpTypeMean, 1, "mean", x)

	parts := match.GetSourcePartitions(g, []ir.OpType{ir.OpTypeMean})[ir.OpTypeMean]
	require.Len(t, parts, 1)
	assert.Equal(t, []*ir.Node{mean}, parts[0].OutputNodes)
}
