package model

import "time"

// AssetBalance is one asset's ledger position inside a snapshot.
type AssetBalance struct {
	Asset    string `json:"asset"`
	Supplied string `json:"supplied"`
	Borrowed string `json:"borrowed"`
}

// VaultSnapshot captures the vault's accounting state at a point in time.
type VaultSnapshot struct {
	TakenAt     time.Time      `json:"taken_at"`
	ShareSupply string         `json:"share_supply"`
	TotalAssets string         `json:"total_assets"`
	Balances    []AssetBalance `json:"balances"`
}
