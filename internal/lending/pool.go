package lending

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReserveData is the subset of lending-pool reserve metadata the vault
// reads. YieldToken is the interest-accruing token minted against supplied
// collateral.
type ReserveData struct {
	YieldToken        common.Address
	LiquidityIndex    *big.Int
	VariableBorrowAPR *big.Int
}

// AccountData summarizes an account's position in the lending pool.
// HealthFactor is informational at this layer; the vault reports it but
// never acts on it.
type AccountData struct {
	TotalCollateral *big.Int
	TotalDebt       *big.Int
	HealthFactor    *big.Int
}

// Pool is the narrow surface of the external yield-bearing lending pool.
// Implementations are injected so tests and simulation can substitute
// deterministic fakes.
type Pool interface {
	Supply(ctx context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) error
	Withdraw(ctx context.Context, asset common.Address, amount *big.Int, to common.Address) (*big.Int, error)
	Borrow(ctx context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) error
	Repay(ctx context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) (*big.Int, error)
	GetReserveData(ctx context.Context, asset common.Address) (ReserveData, error)
	GetUserAccountData(ctx context.Context, account common.Address) (AccountData, error)
}
