package crm

import "time"

// Temperature buckets a lead score for the board.
type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

const (
	hotThreshold  = 70
	warmThreshold = 40
	maxScore      = 100

	// recentContactWindow is how long a touch keeps boosting the score.
	recentContactWindow = 7 * 24 * time.Hour
	repeatInquiryPoints = 5
	maxRepeatPoints     = 15
)

var sourceWeights = map[Source]int{
	SourceReferral:    25,
	SourceWalkIn:      20,
	SourcePhone:       20,
	SourceWebsite:     15,
	SourceFacebook:    10,
	SourceMarketplace: 10,
	SourceOther:       5,
}

var paymentWeights = map[PaymentPreference]int{
	PaymentCash:    15,
	PaymentFinance: 10,
	PaymentRTO:     5,
}

var stageWeights = map[Stage]int{
	StageQualified:   5,
	StageQuoted:      10,
	StageNegotiating: 15,
}

// ScoreCustomer returns a 0..100 lead score. Lost leads score zero.
func ScoreCustomer(c *Customer, now time.Time) int {
	if c.Stage == StageLost {
		return 0
	}
	score := 0
	if c.EmailNormalized != "" {
		score += 10
	}
	if c.PhoneNormalized != "" {
		score += 15
	}
	score += sourceWeights[c.Source]
	if c.Interest.TrailerType != "" || c.Interest.StockNumber != "" {
		score += 10
	}
	if c.Interest.Budget.IsPositive() {
		score += 5
	}
	score += paymentWeights[c.Interest.Payment]
	if c.LastContactedAt != nil && now.Sub(*c.LastContactedAt) <= recentContactWindow {
		score += 10
	}
	if c.InquiryCount > 1 {
		score += min((c.InquiryCount-1)*repeatInquiryPoints, maxRepeatPoints)
	}
	score += stageWeights[c.Stage]
	return min(score, maxScore)
}

// TemperatureFor buckets a score.
func TemperatureFor(score int) Temperature {
	switch {
	case score >= hotThreshold:
		return TemperatureHot
	case score >= warmThreshold:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}
