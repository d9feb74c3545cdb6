//go:build wireinject

//go:generate wire

package api

import (
	"github.com/dropbox/godropbox/time2"
	"github.com/google/wire"
	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/session"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewRedisClient,
	NewDeviceStore,
	session.NewSecretCache,
	NewPassphrasePrompt,
	keySet,
	NewSigningService,
)

var keySet = wire.NewSet(
	key.NewDerivationService,
	key.NewHDKeychainDeriver,
	wire.Bind(new(key.Deriver), new(*key.HDKeychainDeriver)),
	NewSeedProvider,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Signer,
) (*Server, error) {
	wire.Build(serviceSet, NewClock)
	return new(Server), nil
}

// InitNewServerWithClock returns a new Server instance with the given clock.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithClock(
	_ config.Signer,
	_ time2.Clock,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
