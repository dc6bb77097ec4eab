package order

import "sort"

// Row is the slice of one stored order line that countability depends on.
type Row struct {
	RowID      uint64
	OrderID    string
	CustomerID string
	Status     string
	Timestamp  string
}

// Classify recomputes which rows count as active orders and returns their
// row ids, ascending. Evaluated per order-id group:
//
//   - a reserved-customer row is never countable;
//   - a group containing a cancellation has no countable row;
//   - otherwise exactly the latest row is countable. Latest means the
//     greatest event timestamp; among rows sharing it, the higher status
//     priority wins (a cancellation and the order it cancels can be
//     captured in the same instant).
//
// The ranking runs over the whole group, reserved rows included, so the
// per-row reserved veto suppresses the group rather than promoting an
// older row.
func Classify(rows []Row) []uint64 {
	groups := make(map[string][]Row)
	for _, row := range rows {
		groups[row.OrderID] = append(groups[row.OrderID], row)
	}

	countable := make([]uint64, 0, len(groups))
	for _, group := range groups {
		if hasCancellation(group) {
			continue
		}

		latest := latestRow(group)
		if IsReservedCustomer(latest.CustomerID) {
			continue
		}
		countable = append(countable, latest.RowID)
	}

	sort.Slice(countable, func(i, j int) bool { return countable[i] < countable[j] })
	return countable
}

func hasCancellation(group []Row) bool {
	for _, row := range group {
		if StatusPriority(row.Status) == 2 {
			return true
		}
	}
	return false
}

func latestRow(group []Row) Row {
	best := group[0]
	for _, row := range group[1:] {
		if laterThan(row, best) {
			best = row
		}
	}
	return best
}

// laterThan orders rows by event time, then status priority, then row id
// so the result is deterministic even for full duplicates of the ordering
// fields. An unparsable timestamp sorts as the zero instant.
func laterThan(a, b Row) bool {
	ta, _ := ParseEventTime(a.Timestamp)
	tb, _ := ParseEventTime(b.Timestamp)

	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	if pa, pb := StatusPriority(a.Status), StatusPriority(b.Status); pa != pb {
		return pa > pb
	}
	return a.RowID > b.RowID
}
