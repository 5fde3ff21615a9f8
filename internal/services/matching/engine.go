// Package matching implements the scored, greedy pairing of bank
// transactions against system transactions. Scoring is pure and runs
// concurrently over the cross-product; acceptance is single-threaded because
// each decision depends on previously accepted pairs.
package matching

import (
	"math"
	"sort"
	"strings"
	"sync"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
)

// Scoring tolerances and weights. A term contributes only when the pair is
// within its tolerance; the total must clear MinMatchScore for the pair to
// become a candidate.
const (
	AmountTolerance   = 2.0
	DateToleranceDays = 2.0
	MinMatchScore     = 0.5
	MinDescSimilarity = 0.6

	amountWeight = 0.4
	dateWeight   = 0.3
	typeWeight   = 0.1
	descWeight   = 0.2
)

// Pair is an accepted (bank, system) assignment with its score.
type Pair struct {
	Bank   *models.BankTransaction
	System *models.SystemTransaction
	Score  float64
}

// Score computes the weighted similarity of a bank/system pair in [0,1].
func Score(bank *models.BankTransaction, sys *models.SystemTransaction) float64 {
	score := 0.0

	amountDiff := bank.Amount.Sub(sys.Amount).Abs().InexactFloat64()
	if amountDiff <= AmountTolerance {
		score += (1 - amountDiff/AmountTolerance) * amountWeight
	}

	dayDiff := math.Abs(bank.TransactionDate.Sub(sys.TransactionDate).Hours() / 24)
	if dayDiff <= DateToleranceDays {
		score += (1 - dayDiff/DateToleranceDays) * dateWeight
	}

	if bank.Type == sys.Type {
		score += typeWeight
	}

	if sim := descriptionSimilarity(bank.Description, sys.Description); sim > MinDescSimilarity {
		score += sim * descWeight
	}

	return score
}

// AutoMatch scores every unmatched bank transaction against every unmatched
// system transaction and resolves a best-effort 1:1 assignment greedily by
// descending score. This is a greedy approximation of maximum-weight
// bipartite matching: O(n*m) and sufficient under the tight score gate.
// Equal scores break lexically on (bank ID, system ID) so the result is
// deterministic. Inputs already marked matched are skipped, which makes the
// operation idempotent over prior runs.
func AutoMatch(bank []*models.BankTransaction, system []*models.SystemTransaction) []Pair {
	perBank := make([][]Pair, len(bank))
	var wg sync.WaitGroup
	for i, bt := range bank {
		if bt.Status != models.StatusUnmatched {
			continue
		}
		wg.Add(1)
		go func(i int, bt *models.BankTransaction) {
			defer wg.Done()
			var local []Pair
			for _, st := range system {
				if st.Status != models.StatusUnmatched {
					continue
				}
				if s := Score(bt, st); s > MinMatchScore {
					local = append(local, Pair{Bank: bt, System: st, Score: s})
				}
			}
			perBank[i] = local
		}(i, bt)
	}
	wg.Wait()

	var candidates []Pair
	for _, local := range perBank {
		candidates = append(candidates, local...)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Bank.ID != candidates[j].Bank.ID {
			return candidates[i].Bank.ID.String() < candidates[j].Bank.ID.String()
		}
		return candidates[i].System.ID.String() < candidates[j].System.ID.String()
	})

	claimedBank := make(map[uuid.UUID]bool)
	claimedSystem := make(map[uuid.UUID]bool)
	var accepted []Pair
	for _, c := range candidates {
		if claimedBank[c.Bank.ID] || claimedSystem[c.System.ID] {
			continue
		}
		claimedBank[c.Bank.ID] = true
		claimedSystem[c.System.ID] = true
		accepted = append(accepted, c)
	}
	return accepted
}

// descriptionSimilarity is word-set Jaccard similarity over lower-cased
// tokens longer than 2 characters. Both sets empty scores 1; exactly one
// empty scores 0.
func descriptionSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		if len(tok) > 2 {
			set[tok] = true
		}
	}
	return set
}
