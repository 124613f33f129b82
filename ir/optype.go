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

// OpType is a closed enumeration of every operator identity the annotation
// passes recognize.
//
// It covers two families:
//
//   - Lowered primitives: what a call node actually executes after tracing.
//     Most functional identities are their own primitive (a traced relu call
//     executes OpTypeFunctionalReLU), but a few module identities lower to a
//     canonical kernel that has no functional spelling of its own, e.g.
//     OpTypeConvolution and OpTypeMaxPool2dWithIndices.
//
//   - Source identities: the class-style module or functional call a node was
//     traced from. These never appear as a call target; they are the grouping
//     key for source partitions (see ir/match).
//
// Keeping both families in one enum keeps equivalence tables and pattern
// sequences exhaustiveness-checkable.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota

	// Graph-structural targets.
	OpTypePlaceholder
	OpTypeParameter
	OpTypeOutput

	// Lowered primitives with no functional spelling.
	OpTypeConvolution
	OpTypeMaxPool2dWithIndices

	// Class-style module identities.
	OpTypeConv2d
	OpTypeBatchNorm2d
	OpTypeReLU
	OpTypeLinear
	OpTypeMaxPool2d
	OpTypeHardtanh
	OpTypeAdaptiveAvgPool2d

	// Functional and operator identities.
	OpTypeFunctionalConv2d
	OpTypeFunctionalBatchNorm
	OpTypeFunctionalReLU
	OpTypeFunctionalReLUInplace
	OpTypeFunctionalLinear
	OpTypeFunctionalMaxPool2d
	OpTypeFunctionalHardtanh
	OpTypeFunctionalHardtanhInplace
	OpTypeFunctionalAdaptiveAvgPool2d
	OpTypeAdd
	OpTypeOperatorAdd
	OpTypeOperatorIAdd
	OpTypeMean
)

// NodeKind tags the structural role of a Node in the traced graph.
type NodeKind int

//go:generate go tool enumer -type=NodeKind -trimprefix=NodeKind -output=gen_nodekind_enumer.go optype.go

const (
	NodeKindInvalid NodeKind = iota

	// NodeKindPlaceholder is a graph input fed by the caller.
	NodeKindPlaceholder

	// NodeKindParameter is a learned tensor (weight, bias, ...) owned by a
	// traced module.
	NodeKindParameter

	// NodeKindCallFunction applies an operator to its arguments.
	NodeKindCallFunction

	// NodeKindOutput is the sink collecting the graph results.
	NodeKindOutput
)
