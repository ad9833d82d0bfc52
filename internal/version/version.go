// internal/version/version.go
package version

// Version is stamped at release time.
var Version = "1.1.0"

// DataVersion tags the persisted database layout.
const DataVersion = "1.1.0"
