package evaluation

import (
	"sort"

	"github.com/buildtally/bidlevel/internal/types"
)

// BuildMatrix builds the per-line-item cross-bid comparison table. Item keys
// appear in first-encounter order across the bid set; within an item, entries
// are ranked ascending by unit price with the same tie rule as bid ranking.
// A bidder that did not price an item is simply absent from that item's
// entries.
func BuildMatrix(bids []types.Bid) ComparisonMatrix {
	var keys []string
	byKey := make(map[string][]MatrixEntry)

	for _, b := range bids {
		seen := make(map[string]bool)
		for _, item := range b.LineItems {
			if seen[item.Key] {
				continue // first price wins if a bid repeats an item key
			}
			seen[item.Key] = true

			if _, ok := byKey[item.Key]; !ok {
				keys = append(keys, item.Key)
			}
			byKey[item.Key] = append(byKey[item.Key], MatrixEntry{
				BidderID:  b.BidderID,
				UnitPrice: item.UnitPrice,
			})
		}
	}

	items := make([]ItemComparison, 0, len(keys))
	for _, key := range keys {
		entries := byKey[key]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].UnitPrice < entries[j].UnitPrice
		})

		low := entries[0].UnitPrice
		for i := range entries {
			rank := i + 1
			if i > 0 && entries[i].UnitPrice == entries[i-1].UnitPrice {
				rank = entries[i-1].Rank
			}
			entries[i].Rank = rank
			entries[i].VsLow = percentOf(entries[i].UnitPrice-low, low)
		}

		items = append(items, ItemComparison{Key: key, Entries: entries})
	}

	return ComparisonMatrix{Items: items}
}
