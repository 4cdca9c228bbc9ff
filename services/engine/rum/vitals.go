package rum

import "github.com/iulianpascalau/client-observability/services/engine/common"

// Web vital names used in the ratings map
const (
	VitalFCP = "fcp"
	VitalLCP = "lcp"
	VitalFID = "fid"
	VitalCLS = "cls"
)

// VitalThreshold holds the good and poor bounds of a web vital
type VitalThreshold struct {
	Good float64
	Poor float64
}

var vitalThresholds = map[string]VitalThreshold{
	VitalFCP: {Good: 1800, Poor: 3000},
	VitalLCP: {Good: 2500, Poor: 4000},
	VitalFID: {Good: 100, Poor: 300},
	VitalCLS: {Good: 0.1, Poor: 0.25},
}

// RateVital classifies a single value. A missing value needs improvement.
func RateVital(value *float64, threshold VitalThreshold) common.VitalRating {
	switch {
	case value == nil:
		return common.RatingNeedsImprovement
	case *value <= threshold.Good:
		return common.RatingGood
	case *value <= threshold.Poor:
		return common.RatingNeedsImprovement
	default:
		return common.RatingPoor
	}
}

// ScoreVitals rates FCP, LCP, FID and CLS and derives the 0-100 composite score
func ScoreVitals(vitals common.WebVitals) common.VitalsScore {
	ratings := map[string]common.VitalRating{
		VitalFCP: RateVital(vitals.FCP, vitalThresholds[VitalFCP]),
		VitalLCP: RateVital(vitals.LCP, vitalThresholds[VitalLCP]),
		VitalFID: RateVital(vitals.FID, vitalThresholds[VitalFID]),
		VitalCLS: RateVital(vitals.CLS, vitalThresholds[VitalCLS]),
	}

	goodCount, poorCount := 0, 0
	for _, rating := range ratings {
		switch rating {
		case common.RatingGood:
			goodCount++
		case common.RatingPoor:
			poorCount++
		}
	}

	result := common.VitalsScore{
		Ratings: ratings,
	}
	switch {
	case poorCount > 0:
		result.Overall = common.RatingPoor
		result.Score = max(0, 50-10*float64(poorCount))
	case goodCount == len(ratings):
		result.Overall = common.RatingGood
		result.Score = min(100, 90+2.5*float64(goodCount))
	default:
		result.Overall = common.RatingNeedsImprovement
		result.Score = 50 + 10*float64(goodCount)
	}

	return result
}

// FCPThreshold returns the first contentful paint bounds
func FCPThreshold() VitalThreshold {
	return vitalThresholds[VitalFCP]
}
