package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BotDetector recognizes robot checks and block pages served with HTTP 200
type BotDetector struct {
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)robot check`),
			regexp.MustCompile(`(?i)enter the characters you see below`),
			regexp.MustCompile(`(?i)type the characters you see in this image`),
			regexp.MustCompile(`(?i)\bcaptcha\b`),
			regexp.MustCompile(`(?i)verify you are (a )?human`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)pardon our interruption`),
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)too many requests`),
		},
	}
}

// DetectBotWall scores the page title and the start of the body text.
// It returns whether the page looks like a wall, why, and the score.
func (bd *BotDetector) DetectBotWall(doc *goquery.Document) (bool, string, float64) {
	title := doc.Find("title").First().Text()
	body := doc.Find("body").Text()
	if len(body) > 5000 {
		body = body[:5000]
	}
	content := strings.ToLower(title + " " + body)

	score := 0.0
	reasons := []string{}

	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			score += 0.5
			reasons = append(reasons, "captcha: "+pattern.String())
		}
	}
	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			score += 0.4
			reasons = append(reasons, "block: "+pattern.String())
		}
	}

	if len(strings.TrimSpace(body)) < 1000 && score > 0 {
		score += 0.2
		reasons = append(reasons, "very short page with wall indicators")
	}

	if score > 1.0 {
		score = 1.0
	}

	return score > 0.3, strings.Join(reasons, "; "), score
}
