package reconcile

import "github.com/shopspring/decimal"

// firstMatch walks a most-recent-first candidate pool and returns the first
// snapshot whose price is within epsilon of the order price, boundary
// inclusive. First-fit by recency: a fresher in-tolerance read wins over a
// closer price further back. Returns nil when nothing is in tolerance.
func firstMatch(orderPrice decimal.Decimal, pool []candidate, epsilon decimal.Decimal) *candidate {
	for i := range pool {
		diff := pool[i].price.Sub(orderPrice).Abs()
		if diff.Cmp(epsilon) <= 0 {
			return &pool[i]
		}
	}
	return nil
}
