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
	"github.com/gomlx/gopjrt/dtypes"
)

// QScheme is the quantization scheme of a tensor value: how scale and
// zero-point relate to it.
type QScheme int

//go:generate go tool enumer -type=QScheme -trimprefix=QScheme -output=gen_qscheme_enumer.go spec.go

const (
	QSchemeInvalid QScheme = iota
	QSchemePerTensorAffine
	QSchemePerTensorSymmetric
	QSchemePerChannelAffine
	QSchemePerChannelSymmetric
)

// IsPerChannel returns whether the scheme quantizes per slice along a channel
// axis rather than per whole tensor.
func (s QScheme) IsPerChannel() bool {
	return s == QSchemePerChannelAffine || s == QSchemePerChannelSymmetric
}

// ObserverKind identifies an observer or fake-quantize implementation by its
// constructor. The implementations themselves live in the calibration layer;
// the annotation passes only name them.
type ObserverKind int

//go:generate go tool enumer -type=ObserverKind -trimprefix=ObserverKind -output=gen_observerkind_enumer.go spec.go

const (
	ObserverKindInvalid ObserverKind = iota
	ObserverKindMinMax
	ObserverKindMovingAverageMinMax
	ObserverKindPerChannelMinMax
	ObserverKindMovingAveragePerChannelMinMax
	ObserverKindHistogram
	ObserverKindPlaceholder

	// ObserverKindFusedMovingAvgFakeQuant is the QAT fake-quantize that fuses
	// observation and quantization simulation; it wraps an inner observer
	// (see ObserverSpec.Observer).
	ObserverKindFusedMovingAvgFakeQuant
)

// observerEps is the epsilon bound into every observer constructor, matching
// the smallest representable scale the calibration layer accepts.
const observerEps = 0x1p-12

// ObserverSpec is an observer/fake-quantize constructor identity together
// with its bound construction arguments. A pure value: two specs binding the
// same constructor and arguments compare equal.
type ObserverSpec struct {
	Kind ObserverKind

	// Eps is the bound epsilon argument, 0 when the constructor takes none
	// (the placeholder observer).
	Eps float64

	// Observer is the inner observer wrapped by
	// ObserverKindFusedMovingAvgFakeQuant; ObserverKindInvalid otherwise.
	Observer ObserverKind
}

// QuantizationSpec is the quantization contract for one tensor value: how the
// value flowing along an edge (or out of a node) should be quantized.
//
// It is an immutable value type: equality is structural, which lets specs be
// deduplicated in sets and used as map keys.
type QuantizationSpec struct {
	DType dtypes.DType

	// QuantMin and QuantMax bound the integer representation. Both zero when
	// the dtype is not quantized (the float bias spec).
	QuantMin, QuantMax int

	Scheme QScheme

	// ChannelAxis is only meaningful for per-channel schemes.
	ChannelAxis int

	// IsDynamic selects dynamic (per-batch) over static (calibrated)
	// quantization parameters.
	IsDynamic bool

	Observer ObserverSpec
}

// QuantizationConfig bundles the quantization contracts a pattern annotator
// hands out: one spec per role plus the QAT flag. Comparable, so it serves as
// the annotator-registry key and deduplicates in supported-config listings.
type QuantizationConfig struct {
	Activation QuantizationSpec
	Weight     QuantizationSpec
	Bias       QuantizationSpec

	// IsQAT enables the quantization-aware-training patterns: with it unfused
	// batch normalization after a convolution is a recognized shape.
	IsQAT bool
}
