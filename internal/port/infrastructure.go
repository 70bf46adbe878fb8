// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

import (
	"context"
	"net"
	"time"

	"golang-wifista/internal/types"
)

//go:generate mockgen -destination=../mock/infrastructure.go -package=mock -source=infrastructure.go

// Radio is a port for the wireless device driving the station interface.
// Every operation may suspend and may fail with a platform-defined error.
type Radio interface {
	// ApplyStationConfig sets the SSID, password and auth method of the station.
	ApplyStationConfig(cfg types.StationConfig) error

	// SwapNetworkInterfaces replaces both the station and router interfaces in one step
	// and returns the previous pair.
	SwapNetworkInterfaces(station, router types.InterfaceDescriptor) (types.InterfaceDescriptor, types.InterfaceDescriptor, error)

	// Start powers up the radio.
	Start(ctx context.Context) error

	// Connect associates with the configured access point.
	Connect(ctx context.Context) error

	// WaitForAddress blocks until the interface reports a usable address.
	WaitForAddress(ctx context.Context) (types.AddressInfo, error)

	// Disconnect disassociates from the access point.
	Disconnect(ctx context.Context) error

	// Stop powers down the radio.
	Stop(ctx context.Context) error

	// Name returns the name of the underlying interface
	Name() string
}

// FileManager is a port for file system operations.
// This interface abstracts file read/write operations.
type FileManager interface {
	// ReadFile reads the contents of a file
	ReadFile(filename string) ([]byte, error)

	// WriteFile writes data to a file with specified permissions
	WriteFile(filename string, data []byte, perm int) error

	// FileExists checks if a file exists
	FileExists(filename string) bool
}

// CommandRunner is a port for running external helper programs such as wpa_cli.
type CommandRunner interface {
	// Run executes name with args and returns its combined output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Dialer is a port for opening outbound byte streams.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Sleeper is a port for delays that must yield to the platform, e.g. to feed a watchdog.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}
