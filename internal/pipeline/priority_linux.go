//go:build linux

// internal/pipeline/priority_linux.go
package pipeline

import "golang.org/x/sys/unix"

// lowerPriority drops the whole process below normal scheduling priority so
// a full worker pool does not starve interactive use of the machine. The
// effect covers every goroutine, consumer included; call it once per batch.
func lowerPriority() {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, 1)
}
