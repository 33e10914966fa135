// Package leads scores stored businesses as sales leads and shapes them
// for API responses.
package leads

import "github.com/leadscout/lead-scout/internal/store"

// Scoring weights. The four bonuses sum to exactly 100.
const (
	noWebsitePoints   = 50
	highRatingPoints  = 20
	manyReviewsPoints = 15
	hasPhonePoints    = 15

	highRatingFloor  = 4.0
	manyReviewsFloor = 100
)

// Score rates a business as a lead on a 0-100 scale. A business with no
// website is the strongest signal: it can be sold one. High ratings and
// review volume show the business is real and busy; a phone number means
// it can be reached.
func Score(b *store.Business) int {
	score := 0

	if b.Website == "" {
		score += noWebsitePoints
	}
	if b.Rating != nil && *b.Rating >= highRatingFloor {
		score += highRatingPoints
	}
	if b.ReviewCount != nil && *b.ReviewCount >= manyReviewsFloor {
		score += manyReviewsPoints
	}
	if b.Phone != "" {
		score += hasPhonePoints
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
