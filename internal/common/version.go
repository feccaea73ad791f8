package common

import (
	"os"
	"strings"
)

// Version is set at build time via ldflags; falls back to the .version
// file, then "dev".
var Version = ""

// GetVersion returns the effective version string.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

// LoadVersionFromFile reads .version next to the binary when ldflags did
// not set the version.
func LoadVersionFromFile() {
	if Version != "" {
		return
	}
	data, err := os.ReadFile(".version")
	if err != nil {
		return
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		Version = v
	}
}
