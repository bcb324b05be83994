//go:build darwin

package internal

import (
	"os/exec"
	"strings"
)

// osLocale reads the macOS region preference, e.g. "en_US" or "sv_SE".
// Terminal sessions often leave LANG unset, so this is the usual source on a Mac.
func osLocale() string {
	out, err := exec.Command("defaults", "read", "-g", "AppleLocale").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
