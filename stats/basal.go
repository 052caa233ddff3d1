package stats

import (
	"github.com/tidepool-org/timeline/data"
)

// DeliverySegment is a contiguous run of basal records sharing a delivery
// type. The rendering layer builds one path per segment instead of one per
// record.
type DeliverySegment struct {
	DeliveryType string        `structs:"deliveryType"`
	Data         []*data.Datum `structs:"data"`
}

// DeliverySegments groups the (sorted) basal records into contiguous
// delivery-type runs within [start, end).
func DeliverySegments(records []*data.Datum, startEpoch, endEpoch int64) []DeliverySegment {
	var segments []DeliverySegment
	for _, d := range records {
		if d.Epoch >= endEpoch {
			break
		}
		if d.End() <= startEpoch || d.Basal == nil {
			continue
		}
		if n := len(segments); n > 0 && segments[n-1].DeliveryType == d.Basal.DeliveryType {
			segments[n-1].Data = append(segments[n-1].Data, d)
			continue
		}
		segments = append(segments, DeliverySegment{
			DeliveryType: d.Basal.DeliveryType,
			Data:         []*data.Datum{d},
		})
	}
	return segments
}
