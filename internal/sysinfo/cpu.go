// Package sysinfo reports the platform details recorded next to benchmark
// results and printed by the version command.
package sysinfo

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures returns the multiply-relevant instruction set extensions
// detected on this machine, in a fixed order. The list is empty on
// architectures without any of them.
func CPUFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasBMI2, "bmi2")
		add(cpu.X86.HasADX, "adx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasAVX512F && cpu.X86.HasAVX512DQ, "avx512")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return features
}

// Platform returns "GOOS/GOARCH", followed by the CPU features in brackets
// when there are any.
func Platform() string {
	p := runtime.GOOS + "/" + runtime.GOARCH
	if f := CPUFeatures(); len(f) > 0 {
		p += " [" + strings.Join(f, ",") + "]"
	}
	return p
}
