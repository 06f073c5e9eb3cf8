package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Order selects how identifier lists are sorted.
type Order string

const (
	// OrderLexical sorts identifiers as plain strings ("1.10.1" before "1.2.1").
	OrderLexical Order = "lexical"
	// OrderNumeric sorts identifiers by their integer components ("1.2.1" before "1.10.1").
	OrderNumeric Order = "numeric"
)

// ParseOrder validates an order name. The empty string selects OrderLexical.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderLexical:
		return OrderLexical, nil
	case OrderNumeric:
		return OrderNumeric, nil
	default:
		return "", fmt.Errorf("unknown identifier order %q (want %q or %q)", s, OrderLexical, OrderNumeric)
	}
}

// Sort sorts ids in place according to o.
func (o Order) Sort(ids []string) {
	if o != OrderNumeric {
		sort.Strings(ids)
		return
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return numericLess(ids[i], ids[j])
	})
}

// numericLess compares dotted identifiers component by component. Components
// that are not integers fall back to string comparison.
func numericLess(a, b string) bool {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] == pb[i] {
			continue
		}
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA != nil || errB != nil {
			return pa[i] < pb[i]
		}
		if na != nb {
			return na < nb
		}
		// "01" and "1" are numerically equal; keep the result total.
		return pa[i] < pb[i]
	}
	return len(pa) < len(pb)
}
