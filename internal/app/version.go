// Package app provides the core application structure for the fibdrv CLI.
// It parses the configuration, dispatches to the calculation, server or
// bench mode, and reports version information.
package app

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fibdrv/internal/sysinfo"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/fibdrv/internal/app.Version=v1.2.3 -X github.com/agbru/fibdrv/internal/app.Commit=abc123"
var (
	// Version is the semantic version of the application (e.g., "v1.0.0").
	Version = "dev"
	// Commit is the short Git commit hash.
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build.
	BuildDate = "unknown"
)

// HasVersionFlag reports whether any argument asks for the version, so
// that --version works in any position.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the version block, including the detected CPU
// features, to out.
func PrintVersion(out io.Writer) {
	info := GetVersionInfo()
	fmt.Fprintf(out, "fibdrv %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(out, "  Platform:   %s\n", info.Platform)
}

// VersionData is the version information in a JSON-friendly form.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Platform:  sysinfo.Platform(),
	}
}
