//go:build !windows

package console

// LaunchedFromExplorer is always false outside Windows.
func LaunchedFromExplorer() bool { return false }
