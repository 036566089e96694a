package scraper

import "unicode/utf8"

const (
	baseConfidence = 50
	maxConfidence  = 95
	// More distinct candidates than this means a noisy page
	noisyCandidateCount = 20
)

// ScoreConfidence rates a scrape from 0 to 95. The cap keeps automatic
// results below a user-confirmed price.
func ScoreConfidence(title string, price *float64, candidateCount int) int {
	score := baseConfidence

	if title != "" && utf8.RuneCountInString(title) > 10 {
		score += 20
	}
	if price != nil && *price >= 10 && *price <= 5000 {
		score += 15
	}
	if candidateCount > noisyCandidateCount {
		score -= 10
	}

	return clampConfidence(score)
}

func clampConfidence(score int) int {
	if score > maxConfidence {
		return maxConfidence
	}
	if score < 0 {
		return 0
	}
	return score
}
