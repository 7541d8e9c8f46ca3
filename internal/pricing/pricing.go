package pricing

import (
	"sort"

	"app/internal/domain/model"
)

// ComputeTotalは枚数と段階価格から合計（セント）を出す。
// ルールはここに一本化する：
//   - 段階価格が無ければ count * flatPriceCents
//   - MinQty降順に並べ、count以上を満たす最大のMinQtyの単価を使う
//   - どの段階にも届かない場合は最小MinQtyの単価で計算する（床価格）
//
// 副作用なし。countが0以下なら0。
func ComputeTotal(count int64, tiers []model.PricingTier, flatPriceCents int64) int64 {
	if count <= 0 {
		return 0
	}

	if len(tiers) == 0 {
		return count * flatPriceCents
	}

	sorted := make([]model.PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQty > sorted[j].MinQty
	})

	for _, t := range sorted {
		if t.MinQty <= count {
			return count * t.UnitPriceCents
		}
	}

	//countが最小のMinQty未満：最小段階の単価を床として使う
	floor := sorted[len(sorted)-1]
	return count * floor.UnitPriceCents
}
