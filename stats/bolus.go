package stats

import (
	"github.com/tidepool-org/timeline/data"
)

// SumDelivered totals the delivered bolus dose across [start, end). A bolus
// active before the window but with no qualifying start inside it contributes
// nothing, so an empty window sums to 0.
func SumDelivered(records []*data.Datum, startEpoch, endEpoch int64) float64 {
	var total float64
	for _, d := range records {
		if d.Epoch >= endEpoch {
			break
		}
		if d.Epoch < startEpoch || d.Bolus == nil {
			continue
		}
		total += d.Bolus.Normal
		if d.Bolus.Extended != nil {
			total += *d.Bolus.Extended
		}
	}
	return total
}
