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
	"github.com/gomlx/quantize/ir/match"
	"github.com/pkg/errors"
)

// Shared building blocks of the pattern annotators. Every pattern pass
// follows the same template: find instances, locate anchors, validate the
// structural invariants, skip claimed instances, write the specs, claim the
// nodes.

// singleOutputNode enforces the one-output-per-partition invariant every
// pattern in this system relies on; more than one output is a structural
// error in the traced graph's shape.
func singleOutputNode(p *match.SourcePartition) (*ir.Node, error) {
	if len(p.OutputNodes) > 1 {
		return nil, errors.Errorf("%s partition has more than one output node", p.Source)
	}
	if len(p.OutputNodes) == 0 {
		return nil, errors.Errorf("%s partition has no output node", p.Source)
	}
	return p.OutputNodes[0], nil
}

// checkConvolution validates that the matched anchor actually lowered to the
// canonical convolution primitive -- the matcher may have matched a module
// whose internal lowering differs.
func checkConvolution(n *ir.Node) error {
	if n.Kind() != ir.NodeKindCallFunction || n.Target() != ir.OpTypeConvolution {
		return errors.Errorf("node %s is not a lowered convolution operator", n)
	}
	return nil
}

// isConvolution is the silent-skip form of checkConvolution, for the binary
// fusion passes where a non-conv operand means "not this pattern instance".
func isConvolution(n *ir.Node) bool {
	return n != nil && n.Kind() == ir.NodeKindCallFunction && n.Target() == ir.OpTypeConvolution
}

func isReLU(n *ir.Node) bool {
	if n == nil || n.Kind() != ir.NodeKindCallFunction {
		return false
	}
	target := n.Target()
	return target == ir.OpTypeFunctionalReLU || target == ir.OpTypeFunctionalReLUInplace
}

// annotateConvInputs writes the input contracts of a convolution anchor:
// activation spec on the data input, weight spec on the weight, and -- only
// when a bias argument is present, bias being optional -- bias spec on the
// bias.
func annotateConvInputs(anns *Annotations, conv *ir.Node, cfg QuantizationConfig) error {
	inputAct := conv.Arg(0)
	if inputAct == nil {
		return errors.Errorf("convolution node %s has no input activation argument", conv)
	}
	weight := conv.Arg(1)
	if weight == nil {
		return errors.Errorf("convolution node %s has no weight argument", conv)
	}
	anns.SetInputQSpec(conv, inputAct, cfg.Activation)
	anns.SetInputQSpec(conv, weight, cfg.Weight)
	if bias := conv.Arg(2); bias != nil {
		anns.SetInputQSpec(conv, bias, cfg.Bias)
	}
	return nil
}

// annotateAtomicConv is the plain single-convolution pass shared by both
// quantizers: runs after every composite conv pattern, so fused instances are
// already claimed and skipped here.
func annotateAtomicConv(g *ir.Graph, cfg QuantizationConfig, anns *Annotations) error {
	sources := []ir.OpType{ir.OpTypeConv2d, ir.OpTypeFunctionalConv2d}
	partitions := match.FlattenPartitions(match.GetSourcePartitions(g, sources), sources)
	for _, p := range partitions {
		convNode, err := singleOutputNode(p)
		if err != nil {
			return err
		}
		if err = checkConvolution(convNode); err != nil {
			return err
		}
		if anns.IsAnyAnnotated(convNode) {
			continue
		}
		if err = annotateConvInputs(anns, convNode, cfg); err != nil {
			return err
		}
		anns.SetOutputQSpec(convNode, cfg.Activation)
		anns.MarkAnnotated(convNode)
	}
	return nil
}

// binaryOperands locates which positional operand of the binary (add) node is
// the convolution result and which is the extra tensor input. Returns nils if
// neither operand is the conv call result: not every add adjacent to a conv
// in traversal order is actually consuming its output, and such instances are
// silently skipped by the callers.
func binaryOperands(binary, conv *ir.Node) (convOperand, extraInput *ir.Node) {
	arg0, arg1 := binary.Arg(0), binary.Arg(1)
	if arg0 != nil && arg0.Kind() == ir.NodeKindCallFunction && arg0 == conv {
		return arg0, arg1
	}
	if arg1 != nil && arg1.Kind() == ir.NodeKindCallFunction && arg1 == conv {
		return arg1, arg0
	}
	return nil, nil
}
