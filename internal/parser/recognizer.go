package parser

// HeaderRecognizer guesses which collection a header row was written for.
type HeaderRecognizer struct {
	tables []*AliasTable
}

// NewHeaderRecognizer creates a recognizer over every alias table.
func NewHeaderRecognizer() *HeaderRecognizer {
	return &HeaderRecognizer{tables: AliasTables()}
}

// Recognize scores the headers against each table. A table only qualifies when
// all of its required fields have a column; among qualifying tables the one
// with the highest share of matched fields wins, earlier tables on ties.
func (r *HeaderRecognizer) Recognize(headers []string) (RecognitionResult, bool) {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[NormalizeHeader(h)] = struct{}{}
	}

	best := RecognitionResult{}
	found := false
	for _, t := range r.tables {
		res := r.score(t, present)
		if len(res.Missing) > 0 {
			continue
		}
		if !found || res.Confidence > best.Confidence {
			best = res
			found = true
		}
	}
	return best, found
}

func (r *HeaderRecognizer) score(t *AliasTable, present map[string]struct{}) RecognitionResult {
	res := RecognitionResult{Collection: t.Collection}
	for _, f := range t.Order {
		if hasAnyAlias(present, t.Aliases[f]) {
			res.Matched = append(res.Matched, f)
		}
	}
	for _, f := range t.Required {
		if !hasAnyAlias(present, t.Aliases[f]) {
			res.Missing = append(res.Missing, f)
		}
	}
	if len(t.Order) > 0 {
		res.Confidence = float64(len(res.Matched)) / float64(len(t.Order))
	}
	return res
}

func hasAnyAlias(present map[string]struct{}, aliases []string) bool {
	for _, a := range aliases {
		if _, ok := present[a]; ok {
			return true
		}
	}
	return false
}
