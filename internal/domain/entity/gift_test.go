package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestGift_MatchesScore_Boundaries(t *testing.T) {
	bounded := &Gift{MinScore: 3, MaxScore: intPtr(5)}
	unbounded := &Gift{MinScore: 3}

	tests := []struct {
		score         int
		wantBounded   bool
		wantUnbounded bool
	}{
		{score: 2, wantBounded: false, wantUnbounded: false},
		{score: 3, wantBounded: true, wantUnbounded: true},
		{score: 5, wantBounded: true, wantUnbounded: true},
		{score: 6, wantBounded: false, wantUnbounded: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantBounded, bounded.MatchesScore(tt.score), "score=%d, max_score=5", tt.score)
		assert.Equal(t, tt.wantUnbounded, unbounded.MatchesScore(tt.score), "score=%d, max_score=nil", tt.score)
	}
}

func TestGift_HasInventory(t *testing.T) {
	assert.True(t, (&Gift{}).HasInventory(), "nil max_quantity означает неограниченный запас")
	assert.True(t, (&Gift{MaxQuantity: intPtr(1), UsedCount: 0}).HasInventory())
	assert.False(t, (&Gift{MaxQuantity: intPtr(1), UsedCount: 1}).HasInventory())
	assert.False(t, (&Gift{MaxQuantity: intPtr(0)}).HasInventory())
}

func TestGift_Remaining(t *testing.T) {
	assert.Equal(t, -1, (&Gift{}).Remaining())
	assert.Equal(t, 3, (&Gift{MaxQuantity: intPtr(5), UsedCount: 2}).Remaining())
	assert.Equal(t, 0, (&Gift{MaxQuantity: intPtr(1), UsedCount: 4}).Remaining(), "остаток не уходит в минус")
}

func TestGift_IsEligible(t *testing.T) {
	gift := &Gift{CampaignID: 1, IsActive: true, MinScore: 3, MaxScore: intPtr(5), MaxQuantity: intPtr(10)}

	assert.True(t, gift.IsEligible(1, 4))
	assert.False(t, gift.IsEligible(2, 4), "подарок другой кампании")

	gift.IsActive = false
	assert.False(t, gift.IsEligible(1, 4), "неактивный подарок")

	gift.IsActive = true
	gift.UsedCount = 10
	assert.False(t, gift.IsEligible(1, 4), "запас исчерпан")
}
