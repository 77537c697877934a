package ledger

import "github.com/retro-admin/dashboard/types"

// Summary aggregates the ledger for the Reports view.
type Summary struct {
	Total         int
	OnTime        int
	OnTimePercent int
	ByStatus      map[types.FulfillmentStatus]int
	ByType        map[types.RequestType]int
}

// Summarize computes report aggregates over entries.
func Summarize(entries []types.RequestEntry) Summary {
	summary := Summary{
		Total:    len(entries),
		ByStatus: make(map[types.FulfillmentStatus]int, len(types.FulfillmentStatuses)),
		ByType:   make(map[types.RequestType]int, len(types.RequestTypes)),
	}
	for _, entry := range entries {
		if entry.AttendedOnTime {
			summary.OnTime++
		}
		summary.ByStatus[entry.FulfillmentStatus]++
		summary.ByType[entry.Type]++
	}
	if summary.Total > 0 {
		summary.OnTimePercent = summary.OnTime * 100 / summary.Total
	}
	return summary
}

// Pending returns the number of entries still waiting for fulfillment.
func (s Summary) Pending() int {
	return s.ByStatus[types.FulfillmentPending]
}

// Late returns the number of entries that missed their deadline.
func (s Summary) Late() int {
	return s.Total - s.OnTime
}

// Done returns the number of completed entries.
func (s Summary) Done() int {
	return s.ByStatus[types.FulfillmentDone]
}

// Cancelled returns the number of cancelled entries.
func (s Summary) Cancelled() int {
	return s.ByStatus[types.FulfillmentCancelled]
}
