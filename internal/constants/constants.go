// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Release is the bare release number
const Release = "1.0"

// Version holds the application version information
const Version = Release + "-" + runtime.GOOS + "/" + runtime.GOARCH

// UserAgent identifies solarclear to the upstream weather and air quality APIs
const UserAgent = "solarclear/" + Release
