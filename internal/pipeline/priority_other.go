//go:build !linux

// internal/pipeline/priority_other.go
package pipeline

func lowerPriority() {}
