package poolmath

import (
	"fmt"
	"math/big"
)

// Tick bounds of the concentrated-liquidity price space.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick, Q64.96.
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt price at MaxTick, Q64.96.
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tickMultipliers = mustParseHexInts([]string{
		"fffcb933bd6fad37aa2d162d1a594001",
		"fff97272373d413259a46990580e213a",
		"fff2e50f5f656932ef12357cf3c7fdcc",
		"ffe5caca7e10e4e61c3624eaa0941cd0",
		"ffcb9843d60f6159c9db58835c926644",
		"ff973b41fa98c081472e6896dfb254c0",
		"ff2ea16466c96a3843ec78b326b52861",
		"fe5dee046a99a2a811c461f1969c3053",
		"fcbe86c7900a88aedcffc83b479aa3a4",
		"f987a7253ac413176f2b074cf7815e54",
		"f3392b0822b70005940c7a398e4b70f3",
		"e7159475a2c29b7443b29c7fa6e889d9",
		"d097f3bdfd2022b8845ad8f792aa5825",
		"a9f746462d870fdf8a65dc1f90e061e5",
		"70d869a156d2a1b890bb3df62baf32f7",
		"31be135f97d08fd981231505542fcfa6",
		"9aa508b5b7a84e1c677de54f3e99bc9",
		"5d6af8dedb81196699c329225ee604",
		"2216e584f5fa1ea926041bedfe98",
		"48a170391f7dc42444e8fa2",
	})

	oneQ128 = new(big.Int).Lsh(big.NewInt(1), 128)
)

func mustParseHexInts(hexes []string) []*big.Int {
	out := make([]*big.Int, len(hexes))
	for i, h := range hexes {
		v, ok := new(big.Int).SetString(h, 16)
		if !ok {
			panic("poolmath: bad tick multiplier " + h)
		}
		out[i] = v
	}
	return out
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 fixed point.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d out of range", tick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(big.Int).Set(oneQ128)
	if absTick&1 != 0 {
		ratio.Set(tickMultipliers[0])
	}
	for bit := 1; bit < len(tickMultipliers); bit++ {
		if absTick&(1<<uint(bit)) != 0 {
			ratio.Mul(ratio, tickMultipliers[bit])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128.128 -> Q64.96, rounding up.
	remainder := new(big.Int).And(ratio, new(big.Int).SetUint64(0xffffffff))
	ratio.Rsh(ratio, 32)
	if remainder.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// FloorToSpacing rounds the tick toward negative infinity to the nearest
// multiple of spacing.
func FloorToSpacing(tick, spacing int32) int32 {
	floored := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		floored--
	}
	return floored * spacing
}
