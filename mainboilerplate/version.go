package mainboilerplate

import "fmt"

// Version and BuildDate are populated at build time, via -ldflags -X.
var (
	Version   = "development"
	BuildDate = "unknown"
)

// VersionString describes the Version and BuildDate of the binary.
func VersionString() string {
	return fmt.Sprintf("Version %s, built at %s.", Version, BuildDate)
}
