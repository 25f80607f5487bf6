package ledger

import (
	"sort"
	"strings"

	"github.com/marcward/minibank/internal/domain"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// HistoryQuery narrows and orders a transaction history. Zero value means
// everything, newest first.
type HistoryQuery struct {
	Search string
	Type   domain.TransactionType
	Sort   SortOrder
}

// FilterHistory applies the query to a transaction list without mutating it.
// Search matches case-insensitively against description and counterparty.
// Entries with equal timestamps keep their ledger order.
func FilterHistory(transactions []domain.Transaction, q HistoryQuery) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(transactions))
	search := strings.ToLower(q.Search)

	for _, t := range transactions {
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(t.Counterparty), search) {
			continue
		}
		out = append(out, t)
	}

	if q.Sort == SortOldest {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].Timestamp.Before(out[i].Timestamp)
		})
	}

	return out
}
