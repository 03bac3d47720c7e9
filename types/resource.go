package types

import "strconv"

// DeviceObjectViewType is the kind of binding a resource presents.
type DeviceObjectViewType uint8

const (
	ViewConstantBuffer DeviceObjectViewType = iota
	ViewSampler
	ViewSampledImage
	ViewImage           // read-only storage image
	ViewImageWritable   // read-write/write-only storage image
	ViewBuffer          // typed (format) buffer, read-only
	ViewBufferWritable  // typed buffer, read-write
	ViewBufferStructured
	ViewBufferStructuredWritable
)

// ImageDimension is the dimensionality of an image resource.
type ImageDimension uint8

const (
	Dim1D ImageDimension = iota
	Dim2D
	Dim3D
	DimCube
	Dim2DArray
	DimCubeArray
)

// AddressComponentCount returns the coordinate-vector width required to
// index an image of this dimension.
func (d ImageDimension) AddressComponentCount() int {
	switch d {
	case Dim1D:
		return 1
	case Dim2D, DimCube:
		return 2
	case Dim3D, Dim2DArray, DimCubeArray:
		return 3
	default:
		return 2
	}
}

// PixelFormat is a hardware pixel format carried by image/buffer resources.
type PixelFormat uint8

const (
	FormatUnknown PixelFormat = iota
	FormatR32Float
	FormatRG32Float
	FormatRGBA32Float
	FormatR32Sint
	FormatRGBA32Sint
	FormatR32Uint
	FormatRGBA32Uint
	FormatRGBA8Unorm
)

// ScalarFlavor is the sampled-data flavor of a sampled image.
type ScalarFlavor uint8

const (
	FlavorFloat ScalarFlavor = iota
	FlavorSint
	FlavorUint
)

// ResourceType is the payload of a DataType with Base() == Resource.
type ResourceType struct {
	View        DeviceObjectViewType
	Dim         ImageDimension
	Format      PixelFormat
	Flavor      ScalarFlavor
	Multisample bool
	Readonly    bool
	Struct      *CompositeType // resolved element struct, for structured buffers
}

func (r ResourceType) key() string {
	k := strconv.Itoa(int(r.View)) + ":" + strconv.Itoa(int(r.Dim)) + ":" +
		strconv.Itoa(int(r.Format)) + ":" + strconv.Itoa(int(r.Flavor))
	if r.Multisample {
		k += ":ms"
	}
	if r.Readonly {
		k += ":ro"
	}
	if r.Struct != nil {
		k += ":" + r.Struct.Name
	}
	return k
}

// PackedFormatElementType returns the element type for a hardware pixel
// format.
func (l *Library) PackedFormatElementType(format PixelFormat) DataType {
	switch format {
	case FormatR32Float:
		return l.FloatType(1)
	case FormatRG32Float:
		return l.FloatType(2)
	case FormatRGBA32Float, FormatRGBA8Unorm:
		return l.FloatType(4)
	case FormatR32Sint:
		return l.IntegerType(1)
	case FormatRGBA32Sint:
		return l.IntegerType(4)
	case FormatR32Uint:
		return l.UnsignedType(1)
	case FormatRGBA32Uint:
		return l.UnsignedType(4)
	default:
		return Invalid
	}
}

// SampledImageResultType returns the vec4/ivec4/uvec4 result type a sampled
// image access yields, per the image's scalar flavor.
func (l *Library) SampledImageResultType(flavor ScalarFlavor) DataType {
	switch flavor {
	case FlavorSint:
		return l.IntegerType(4)
	case FlavorUint:
		return l.UnsignedType(4)
	default:
		return l.FloatType(4)
	}
}
