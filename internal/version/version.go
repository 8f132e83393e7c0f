// ABOUTME: Version constants for the monitor
// ABOUTME: Identifies the build in logs and exported recording headers
package version

const (
	Version      = "0.1.0"
	Product      = "Pulsemon Monitor"
	Manufacturer = "Pulsemon Project"
)
