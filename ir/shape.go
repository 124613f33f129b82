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

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Shape is the dtype and dimensions of a tensor value flowing through the
// traced graph. It is known at trace time for every node.
//
// The annotation passes only consult Rank -- the linear annotator tells a
// weight (rank 2) apart from a bias (rank 1) by it -- but the full shape is
// carried so the export layer downstream can size observers.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// MakeShape creates a Shape with the given dtype and dimensions. A scalar has
// no dimensions. It panics if any dimension is <= 0.
func MakeShape(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: dimensions}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("ir.MakeShape(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Rank of the shape, that is, the number of axes. A scalar has rank 0.
func (s Shape) Rank() int {
	return len(s.Dimensions)
}

// IsScalar returns whether the shape has no axes.
func (s Shape) IsScalar() bool {
	return s.Rank() == 0
}

// String implements fmt.Stringer, it prints the shape as `(DType)[dims...]`.
func (s Shape) String() string {
	if s.IsScalar() {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		parts = append(parts, fmt.Sprintf("%d", dim))
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Equal compares dtype and dimensions.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType || s.Rank() != s2.Rank() {
		return false
	}
	for i, dim := range s.Dimensions {
		if dim != s2.Dimensions[i] {
			return false
		}
	}
	return true
}
