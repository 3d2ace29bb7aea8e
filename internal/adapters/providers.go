package adapters

import (
	"github.com/gatorkit/gator-cli/internal/adapters/abi"
	"github.com/gatorkit/gator-cli/internal/adapters/account"
	"github.com/gatorkit/gator-cli/internal/adapters/blockchain"
	"github.com/gatorkit/gator-cli/internal/adapters/bundler"
	"github.com/gatorkit/gator-cli/internal/adapters/delegation"
	"github.com/gatorkit/gator-cli/internal/adapters/interactive"
	"github.com/gatorkit/gator-cli/internal/adapters/network"
	"github.com/gatorkit/gator-cli/internal/adapters/paymaster"
	"github.com/gatorkit/gator-cli/internal/adapters/signatory"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/google/wire"
)

// SignatorySet provides the signing strategies
var SignatorySet = wire.NewSet(
	signatory.NewRegistry,
	wire.Bind(new(usecase.SignatoryRegistry), new(*signatory.Registry)),
)

// AccountSet provides smart account implementations
var AccountSet = wire.NewSet(
	account.NewFactory,
	wire.Bind(new(usecase.AccountFactory), new(*account.Factory)),

	account.NewOperationCodec,
	wire.Bind(new(usecase.UserOperationCodec), new(*account.OperationCodec)),
)

// DelegationSet provides delegation encoding implementations
var DelegationSet = wire.NewSet(
	delegation.NewCodec,
	wire.Bind(new(usecase.DelegationCodec), new(*delegation.Codec)),

	delegation.NewCaveatBuilder,
	wire.Bind(new(usecase.CaveatBuilder), new(*delegation.CaveatBuilder)),

	abi.NewCallDecoder,
	wire.Bind(new(usecase.CallDecoder), new(*abi.CallDecoder)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewReader,
	wire.Bind(new(usecase.ChainReader), new(*blockchain.Reader)),

	bundler.NewClient,
	wire.Bind(new(usecase.Bundler), new(*bundler.Client)),

	paymaster.NewClient,
	wire.Bind(new(usecase.Paymaster), new(*paymaster.Client)),

	network.NewResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*network.Resolver)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.SignatorySelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	SignatorySet,
	AccountSet,
	DelegationSet,
	BlockchainSet,
	InteractiveSet,
)
