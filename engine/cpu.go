package engine

import (
	"github.com/klauspost/cpuid/v2"
)

// CPUFeatures holds the SIMD capabilities detected at engine construction.
type CPUFeatures struct {
	Vendor    string
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
}

func detectCPU() CPUFeatures {
	hasAVX512 := cpuid.CPU.Supports(cpuid.AVX512F) &&
		cpuid.CPU.Supports(cpuid.AVX512DQ) &&
		cpuid.CPU.Supports(cpuid.AVX512BW) &&
		cpuid.CPU.Supports(cpuid.AVX512VL)

	return CPUFeatures{
		Vendor:    cpuid.CPU.VendorString,
		HasAVX2:   cpuid.CPU.Supports(cpuid.AVX2),
		HasAVX512: hasAVX512,
		HasNEON:   cpuid.CPU.Supports(cpuid.ASIMD),
	}
}
