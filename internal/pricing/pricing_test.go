package pricing

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func tiers(pairs ...[2]int64) []model.PricingTier {
	out := make([]model.PricingTier, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.PricingTier{MinQty: p[0], UnitPriceCents: p[1]})
	}
	return out
}

func TestComputeTotal_NoTiersUsesFlatPrice(t *testing.T) {
	assert.Equal(t, int64(0), ComputeTotal(0, nil, 500))
	assert.Equal(t, int64(500), ComputeTotal(1, nil, 500))
	assert.Equal(t, int64(3500), ComputeTotal(7, nil, 500))
	assert.Equal(t, int64(3500), ComputeTotal(7, []model.PricingTier{}, 500))
}

func TestComputeTotal_SelectsLargestQualifyingTier(t *testing.T) {
	s := tiers([2]int64{1, 1000}, [2]int64{5, 800}, [2]int64{10, 600})

	// count=7は{5,800}を使う
	assert.Equal(t, int64(5600), ComputeTotal(7, s, 9999))

	assert.Equal(t, int64(1000), ComputeTotal(1, s, 9999))
	assert.Equal(t, int64(4000), ComputeTotal(4, s, 9999))
	assert.Equal(t, int64(4000), ComputeTotal(5, s, 9999))
	assert.Equal(t, int64(6000), ComputeTotal(10, s, 9999))
	assert.Equal(t, int64(7200), ComputeTotal(12, s, 9999))
}

func TestComputeTotal_BelowLowestTierUsesFloorPrice(t *testing.T) {
	s := tiers([2]int64{5, 800})

	// count=3は最小段階{5,800}を床として使う
	assert.Equal(t, int64(2400), ComputeTotal(3, s, 9999))
}

func TestComputeTotal_InputOrderDoesNotMatter(t *testing.T) {
	asc := tiers([2]int64{1, 1000}, [2]int64{5, 800}, [2]int64{10, 600})
	desc := tiers([2]int64{10, 600}, [2]int64{5, 800}, [2]int64{1, 1000})

	for _, n := range []int64{1, 3, 5, 7, 10, 25} {
		assert.Equal(t, ComputeTotal(n, asc, 0), ComputeTotal(n, desc, 0))
	}

	//入力スライスを破壊しない
	assert.Equal(t, int64(1), asc[0].MinQty)
}

// 段階の境界で総額が下がらない料金表なら、枚数に対して単調に増える
func TestComputeTotal_MonotonicForCliffFreeSchedule(t *testing.T) {
	// 5*800=4000 >= 4*1000, 10*720=7200 >= 9*800: 境界で総額が落ちない設定
	s := tiers([2]int64{1, 1000}, [2]int64{5, 800}, [2]int64{10, 720})

	prev := int64(0)
	for n := int64(1); n <= 30; n++ {
		total := ComputeTotal(n, s, 0)
		assert.GreaterOrEqual(t, total, prev, "count=%d", n)
		prev = total
	}
}

// 全枚数が新しい単価で引き直されるため、値引きの強い境界では総額が下がる。
// 料金表の設計次第で起きる挙動であって、計算側は常に段階単価×枚数を守る。
func TestComputeTotal_SteepBoundaryRepricesWholeSet(t *testing.T) {
	s := tiers([2]int64{1, 1000}, [2]int64{5, 800}, [2]int64{10, 600})

	assert.Equal(t, int64(7200), ComputeTotal(9, s, 0))
	assert.Equal(t, int64(6000), ComputeTotal(10, s, 0))
}
