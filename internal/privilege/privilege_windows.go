//go:build windows

package privilege

import "golang.org/x/sys/windows"

// IsElevated returns true when the process token carries elevation
// (UAC-elevated or running as a service account).
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
