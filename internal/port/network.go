// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

import (
	"context"

	"golang-wifista/internal/types"
)

//go:generate mockgen -destination=../mock/network.go -package=mock -source=network.go

// NetworkController is the primary port for bringing the station interface up and down.
// The station adapter is the only implementation; callers see the operations and their
// outcomes, never the radio itself.
type NetworkController interface {
	// BringUp configures the radio if needed, starts it, connects and blocks until the
	// interface has a usable address.
	BringUp(ctx context.Context) error

	// TearDown disconnects and then stops the radio.
	TearDown(ctx context.Context) error

	// State returns the current bring-up state.
	State() types.InterfaceState

	// GetInterfaceName returns the name of the network interface managed by this controller.
	GetInterfaceName() string
}
