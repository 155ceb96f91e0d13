package bias

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/spigell/devils-advocate/internal/evaluation"
	"github.com/spigell/devils-advocate/internal/models"
)

// Indicator types.
const (
	IndicatorCodedLanguage        = "coded_language"
	IndicatorGenderedReference    = "gendered_reference"
	IndicatorStereotyping         = "stereotyping"
	IndicatorScoreDisparity       = "score_disparity"
	IndicatorDecisionDisagreement = "decision_disagreement"
)

// Component weights of the bias score.
const (
	lexicalWeight      = 0.5
	disparityWeight    = 0.3
	disagreementWeight = 0.2

	// lexicalSaturation is the weighted term count at which the lexical component reaches 1.
	lexicalSaturation = 10.0
	scoreRange        = models.MaxScore - models.MinScore
)

type term struct {
	text   string
	words  []string
	kind   string
	weight int
}

var lexicon = buildLexicon()

func buildLexicon() []term {
	coded := []string{
		"aggressive", "assertive", "dominant", "competitive", "decisive", "fearless",
		"ambitious", "rockstar", "ninja", "headstrong", "nurturing", "emotional",
		"sensitive", "gentle", "abrasive", "bossy", "shrill", "feisty",
	}
	gendered := []string{
		"he", "she", "him", "her", "his", "hers", "himself", "herself", "guy", "guys",
		"girl", "girls", "lady", "ladies", "gentleman", "manpower", "chairman", "salesman",
		"female", "male", "woman", "women", "man", "men", "mother", "father",
	}
	stereotyping := []string{
		"culture fit", "too emotional", "lacks assertiveness", "lacks confidence",
		"not aggressive enough", "too soft", "family commitments", "maternity leave",
		"young and energetic", "digital native", "native speaker", "man's job",
		"woman's touch", "motherly",
	}

	out := make([]term, 0, len(coded)+len(gendered)+len(stereotyping))
	add := func(kind string, weight int, texts []string) {
		for _, t := range texts {
			out = append(out, term{text: t, words: tokenize(t), kind: kind, weight: weight})
		}
	}
	add(IndicatorCodedLanguage, 1, coded)
	add(IndicatorGenderedReference, 2, gendered)
	add(IndicatorStereotyping, 3, stereotyping)
	return out
}

// Breakdown holds the three components the bias score is built from.
type Breakdown struct {
	Lexical      float64 `json:"lexical"`
	Disparity    float64 `json:"disparity"`
	Disagreement float64 `json:"disagreement"`
	Score        float64 `json:"score"`
}

// Score computes a bias score in [0, 1] for reviews, along with the indicators behind it.
//
//	score = 0.5*lexical + 0.3*disparity + 0.2*disagreement
//
// lexical is the weighted count of bias terms in all review text, saturating at 10.
// disparity is the gap between the mean scores of biased and unbiased reviewers, scaled
// to the score range. disagreement is the share of biased reviewers whose recommendation
// differs from the unbiased reviewers' decision. Both need reviewers of each stance and
// are zero otherwise. The score is rounded to three decimals.
func Score(reviews []models.ReviewerFeedback) (Breakdown, []models.BiasIndicator) {
	var indicators []models.BiasIndicator

	weighted := 0
	for _, review := range reviews {
		found := scanTerms(review)
		for _, hit := range found {
			weighted += hit.term.weight * hit.count
			indicators = append(indicators, models.BiasIndicator{
				Type:        hit.term.kind,
				Description: fmt.Sprintf("%q used %d time(s)", hit.term.text, hit.count),
				Severity:    float64(hit.term.weight) / 3,
				Context:     hit.context,
				Location:    review.Reviewer.Name,
			})
		}
	}

	var b Breakdown
	b.Lexical = math.Min(1, float64(weighted)/lexicalSaturation)

	biased, unbiased := splitByStance(reviews)
	if len(biased) > 0 && len(unbiased) > 0 {
		biasedMean, unbiasedMean := groupMean(biased), groupMean(unbiased)
		b.Disparity = math.Min(1, math.Abs(biasedMean-unbiasedMean)/scoreRange)
		if b.Disparity > 0 {
			indicators = append(indicators, models.BiasIndicator{
				Type:        IndicatorScoreDisparity,
				Description: fmt.Sprintf("biased reviewers scored %.2f on average, unbiased reviewers %.2f", biasedMean, unbiasedMean),
				Severity:    round3(b.Disparity),
			})
		}

		reference, err := evaluation.Decide(unbiased)
		if err == nil {
			var differing []string
			for _, r := range biased {
				if r.Recommendation != reference.Recommendation {
					differing = append(differing, r.Reviewer.Name)
				}
			}
			b.Disagreement = float64(len(differing)) / float64(len(biased))
			if len(differing) > 0 {
				indicators = append(indicators, models.BiasIndicator{
					Type:        IndicatorDecisionDisagreement,
					Description: fmt.Sprintf("unbiased reviewers decided %s", reference.Recommendation),
					Severity:    round3(b.Disagreement),
					Location:    strings.Join(differing, ", "),
				})
			}
		}
	}

	b.Lexical = round3(b.Lexical)
	b.Disparity = round3(b.Disparity)
	b.Disagreement = round3(b.Disagreement)
	b.Score = round3(lexicalWeight*b.Lexical + disparityWeight*b.Disparity + disagreementWeight*b.Disagreement)
	return b, indicators
}

type termHit struct {
	term    term
	count   int
	context string
}

func scanTerms(review models.ReviewerFeedback) []termHit {
	texts := review.Texts()
	tokens := make([][]string, len(texts))
	for i, text := range texts {
		tokens[i] = tokenize(text)
	}

	var hits []termHit
	for _, t := range lexicon {
		hit := termHit{term: t}
		for i := range tokens {
			n := countSequence(tokens[i], t.words)
			if n > 0 && hit.count == 0 {
				hit.context = strings.TrimSpace(texts[i])
			}
			hit.count += n
		}
		if hit.count > 0 {
			hits = append(hits, hit)
		}
	}
	return hits
}

// tokenize lowercases text and splits it into words. Apostrophes stay inside words.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func countSequence(tokens, seq []string) int {
	if len(seq) == 0 {
		return 0
	}
	n := 0
	for i := 0; i+len(seq) <= len(tokens); i++ {
		match := true
		for j, w := range seq {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func splitByStance(reviews []models.ReviewerFeedback) (biased, unbiased []models.ReviewerFeedback) {
	for _, r := range reviews {
		if r.Reviewer.BiasStance == models.Biased {
			biased = append(biased, r)
		} else {
			unbiased = append(unbiased, r)
		}
	}
	return biased, unbiased
}

func groupMean(reviews []models.ReviewerFeedback) float64 {
	var total float64
	for i := range reviews {
		total += reviews[i].MeanScore()
	}
	return total / float64(len(reviews))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
