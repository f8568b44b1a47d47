// SPDX-License-Identifier: Unlicense OR MIT

// Package pixfmt describes OpenGL pixel format requests and translates
// them into the attribute lists understood by NSOpenGLPixelFormat.
package pixfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Attribute is an NSOpenGLPixelFormatAttribute value. A list of them
// alternates between attribute names and, where the attribute takes
// one, its value.
type Attribute uint32

// Attribute names and profile values, as defined by AppKit.
const (
	AttrTerminator    Attribute = 0
	AttrDoubleBuffer  Attribute = 5
	AttrColorSize     Attribute = 8
	AttrAlphaSize     Attribute = 11
	AttrDepthSize     Attribute = 12
	AttrStencilSize   Attribute = 13
	AttrAccumSize     Attribute = 14
	AttrSampleBuffers Attribute = 55
	AttrSamples       Attribute = 56
	AttrMultisample   Attribute = 59
	AttrNoRecovery    Attribute = 72
	AttrClosestPolicy Attribute = 74
	AttrOpenGLProfile Attribute = 99

	ProfileLegacy  Attribute = 0x1000
	Profile3_2Core Attribute = 0x3200
	Profile4_1Core Attribute = 0x4100
)

// maxSamples bounds MultisamplingLevel. No shipping driver goes higher.
const maxSamples = 32

// Version selects the OpenGL profile requested from the driver.
type Version uint8

const (
	// VersionDefault leaves the profile to the driver and emits no
	// profile selector.
	VersionDefault Version = iota
	VersionLegacy
	Version3_2
	Version4_1
)

func (v Version) String() string {
	switch v {
	case VersionDefault:
		return "default"
	case VersionLegacy:
		return "legacy"
	case Version3_2:
		return "3.2"
	case Version4_1:
		return "4.1"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// ParseVersion is the inverse of Version.String. The empty string maps
// to VersionDefault.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return VersionDefault, nil
	case "legacy", "2.1":
		return VersionLegacy, nil
	case "3.2", "3.2core":
		return Version3_2, nil
	case "4.1", "4.1core":
		return Version4_1, nil
	}
	return VersionDefault, fmt.Errorf("pixfmt: unknown OpenGL version %q", s)
}

func (v Version) profile() Attribute {
	switch v {
	case Version3_2:
		return Profile3_2Core
	case Version4_1:
		return Profile4_1Core
	default:
		return ProfileLegacy
	}
}

// PixelFormat is a request for the buffer layout of a GL surface. It is
// read once when a context is created.
type PixelFormat struct {
	RedBits   int `mapstructure:"red_bits"`
	GreenBits int `mapstructure:"green_bits"`
	BlueBits  int `mapstructure:"blue_bits"`
	AlphaBits int `mapstructure:"alpha_bits"`

	DepthBufferBits   int `mapstructure:"depth_buffer_bits"`
	StencilBufferBits int `mapstructure:"stencil_buffer_bits"`

	AccumulationRedBits   int `mapstructure:"accumulation_red_bits"`
	AccumulationGreenBits int `mapstructure:"accumulation_green_bits"`
	AccumulationBlueBits  int `mapstructure:"accumulation_blue_bits"`
	AccumulationAlphaBits int `mapstructure:"accumulation_alpha_bits"`

	MultisamplingLevel int `mapstructure:"multisampling_level"`
}

// Default returns 8 bits per colour channel, 8 bits of alpha and a 16
// bit depth buffer.
func Default() PixelFormat {
	return PixelFormat{
		RedBits:         8,
		GreenBits:       8,
		BlueBits:        8,
		AlphaBits:       8,
		DepthBufferBits: 16,
	}
}

var errNegative = errors.New("pixfmt: negative bit depth")

// Validate reports whether the driver could possibly satisfy pf.
func (pf PixelFormat) Validate() error {
	for _, n := range [...]int{
		pf.RedBits, pf.GreenBits, pf.BlueBits, pf.AlphaBits,
		pf.DepthBufferBits, pf.StencilBufferBits,
		pf.AccumulationRedBits, pf.AccumulationGreenBits,
		pf.AccumulationBlueBits, pf.AccumulationAlphaBits,
	} {
		if n < 0 {
			return errNegative
		}
	}
	if pf.MultisamplingLevel < 0 || pf.MultisamplingLevel > maxSamples {
		return fmt.Errorf("pixfmt: multisampling level %d out of range [0,%d]", pf.MultisamplingLevel, maxSamples)
	}
	return nil
}

// ColorSize is the combined red, green and blue depth. NSOpenGLPFAColorSize
// takes the sum, not the per-channel size.
func (pf PixelFormat) ColorSize() int {
	return pf.RedBits + pf.GreenBits + pf.BlueBits
}

// AccumSize is the combined depth of the four accumulation channels.
func (pf PixelFormat) AccumSize() int {
	return pf.AccumulationRedBits + pf.AccumulationGreenBits +
		pf.AccumulationBlueBits + pf.AccumulationAlphaBits
}

// Attribs returns the zero terminated attribute list for pf. The
// profile selector, when v asks for one, comes first; the multisampling
// attributes come last and only if multisample is set.
func Attribs(pf PixelFormat, v Version, multisample bool) []Attribute {
	a := make([]Attribute, 0, 32)
	if v != VersionDefault {
		a = append(a, AttrOpenGLProfile, v.profile())
	}
	a = append(a,
		AttrDoubleBuffer,
		AttrClosestPolicy,
		AttrNoRecovery,
		AttrColorSize, Attribute(pf.ColorSize()),
		AttrAlphaSize, Attribute(pf.AlphaBits),
		AttrDepthSize, Attribute(pf.DepthBufferBits),
		AttrStencilSize, Attribute(pf.StencilBufferBits),
		AttrAccumSize, Attribute(pf.AccumSize()),
	)
	if multisample {
		a = append(a,
			AttrMultisample,
			AttrSampleBuffers, 1,
			AttrSamples, Attribute(pf.MultisamplingLevel),
		)
	}
	return append(a, AttrTerminator)
}
