// Package scoring turns quality features and extracted text into an
// authenticity verdict using a fixed, additive rule table.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/anime-shed/document-verification-go/pkg/models"
)

const (
	// ReasonIncomplete is the only reason given when features are missing
	ReasonIncomplete = "analysis could not be completed"
	// ReasonGenuine is reported when no rule fires
	ReasonGenuine = "document appears genuine"

	neutralConfidence = 50.0
	maxConfidence     = 95
)

// RuleSet holds every threshold and weight the scorer uses
type RuleSet struct {
	BlurSharpness  float64
	BlurWeight     int
	MinContrast    float64
	MaxContrast    float64
	ContrastWeight int
	MinTextLength  int
	TextWeight     int
	MinEdgeDensity float64
	EdgeWeight     int

	// Repeated text fires when more than RepeatMinWords words were read and
	// fewer than RepeatDistinctRatio of them are distinct.
	RepeatMinWords      int
	RepeatDistinctRatio float64
	RepeatWeight        int

	// FraudThreshold is exclusive: a score must exceed it to be fraud
	FraudThreshold int
}

// DefaultRuleSet returns the production rule table
func DefaultRuleSet() RuleSet {
	return RuleSet{
		BlurSharpness:       100,
		BlurWeight:          25,
		MinContrast:         20,
		MaxContrast:         100,
		ContrastWeight:      20,
		MinTextLength:       50,
		TextWeight:          30,
		MinEdgeDensity:      0.05,
		EdgeWeight:          15,
		RepeatMinWords:      10,
		RepeatDistinctRatio: 0.3,
		RepeatWeight:        10,
		FraudThreshold:      50,
	}
}

// Rule is one entry of the table, evaluated independently of the others
type Rule struct {
	Reason  string
	Weight  int
	Matches func(f models.QualityFeatures, text models.ExtractedText) bool
}

// Rules expands the set into its ordered rule table
func (rs RuleSet) Rules() []Rule {
	return []Rule{
		{
			Reason: "quality too low (blur)",
			Weight: rs.BlurWeight,
			Matches: func(f models.QualityFeatures, _ models.ExtractedText) bool {
				return f.Sharpness < rs.BlurSharpness
			},
		},
		{
			Reason: "abnormal contrast",
			Weight: rs.ContrastWeight,
			Matches: func(f models.QualityFeatures, _ models.ExtractedText) bool {
				return f.Contrast < rs.MinContrast || f.Contrast > rs.MaxContrast
			},
		},
		{
			Reason: "too little or no extracted text",
			Weight: rs.TextWeight,
			Matches: func(_ models.QualityFeatures, text models.ExtractedText) bool {
				return utf8.RuneCountInString(strings.TrimSpace(text.Text)) < rs.MinTextLength
			},
		},
		{
			Reason: "document structure unclear",
			Weight: rs.EdgeWeight,
			Matches: func(f models.QualityFeatures, _ models.ExtractedText) bool {
				return f.EdgeDensity < rs.MinEdgeDensity
			},
		},
		{
			Reason: "repeated text detected",
			Weight: rs.RepeatWeight,
			Matches: func(_ models.QualityFeatures, text models.ExtractedText) bool {
				words, distinct := wordStats(text)
				return words > rs.RepeatMinWords &&
					float64(distinct) < rs.RepeatDistinctRatio*float64(words)
			},
		},
	}
}

// Scorer applies a RuleSet. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	rules     []Rule
	threshold int
}

// NewScorer creates a scorer for the given rule set
func NewScorer(rs RuleSet) *Scorer {
	return &Scorer{
		rules:     rs.Rules(),
		threshold: rs.FraudThreshold,
	}
}

// Score evaluates every rule in table order. A nil features value is the
// decode-failure variant and always yields the neutral verdict.
func (s *Scorer) Score(features *models.QualityFeatures, text models.ExtractedText) models.ScoreResult {
	if features == nil {
		return models.ScoreResult{
			IsFraud:    false,
			Confidence: neutralConfidence,
			Reasons:    []string{ReasonIncomplete},
			TextLength: 0,
		}
	}

	score := 0
	reasons := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.Matches(*features, text) {
			score += rule.Weight
			reasons = append(reasons, rule.Reason)
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGenuine)
	}

	isFraud := score > s.threshold
	featuresCopy := *features

	return models.ScoreResult{
		IsFraud:    isFraud,
		FraudScore: score,
		Confidence: Confidence(score, isFraud),
		Reasons:    reasons,
		TextLength: text.Length,
		Features:   &featuresCopy,
	}
}

// Confidence maps a fraud score onto the [0,95] certainty of the verdict
func Confidence(score int, isFraud bool) float64 {
	c := score
	if !isFraud {
		c = 100 - score
	}
	c = min(c, maxConfidence)
	c = max(c, 0)
	return round2(float64(c))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// wordStats prefers the statistics computed at extraction time and falls
// back to splitting the raw text.
func wordStats(text models.ExtractedText) (words, distinct int) {
	if text.Words != nil {
		return len(text.Words), text.DistinctWords
	}
	fields := strings.Fields(text.Text)
	seen := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		seen[w] = struct{}{}
	}
	return len(fields), len(seen)
}
