package model

import "time"

// CycleRecord captures one completed JIT swap cycle for storage. Token
// amounts are decimal strings so arbitrary-precision values survive JSON
// and SQL round trips.
type CycleRecord struct {
	PoolID    string    `json:"pool_id"`
	Currency0 string    `json:"currency0"`
	Currency1 string    `json:"currency1"`
	Fee       uint32    `json:"fee"`
	TickLower int32     `json:"tick_lower"`
	TickUpper int32     `json:"tick_upper"`
	Liquidity string    `json:"liquidity"`
	Supplied0 string    `json:"supplied0"`
	Supplied1 string    `json:"supplied1"`
	Borrowed0 string    `json:"borrowed0"`
	Borrowed1 string    `json:"borrowed1"`
	Returned0 string    `json:"returned0"`
	Returned1 string    `json:"returned1"`
	SettledAt time.Time `json:"settled_at"`
}
