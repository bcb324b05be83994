//go:build !windows && !darwin

package internal

// osLocale has nothing beyond the environment to offer on Linux and BSDs
func osLocale() string { return "" }
