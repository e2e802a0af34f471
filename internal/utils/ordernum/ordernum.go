package ordernum

import (
	"fmt"
	"strconv"
	"strings"
)

// Prefix is the human-readable order number prefix.
const Prefix = "ORD-"

// width is the zero-padded counter width.
const width = 6

// Format renders a sequence value as an order number, e.g. 42 -> ORD-000042.
func Format(seq int64) string {
	return fmt.Sprintf("%s%0*d", Prefix, width, seq)
}

// Parse extracts the numeric counter from an order number. A corrupted or
// foreign format returns ok=false; callers default to restarting the sequence
// rather than aborting order creation.
func Parse(orderNumber string) (int64, bool) {
	suffix, found := strings.CutPrefix(orderNumber, Prefix)
	if !found {
		return 0, false
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// Next returns the order number following the given one. Unparseable input
// restarts the sequence at 1 (availability over strict numbering continuity).
func Next(latest string) string {
	seq, ok := Parse(latest)
	if !ok {
		return Format(1)
	}
	return Format(seq + 1)
}

// First is the order number assigned when a store has no prior orders.
func First() string {
	return Format(1)
}
