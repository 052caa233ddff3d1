package api

import (
	"math"

	"github.com/fatih/structs"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/normalizer"
	"github.com/tidepool-org/timeline/stats"
)

// datumDTO renders a record as a transport map. Category attributes are
// flattened onto the record the way devices report them; suppressed basal
// chains are expanded back out of the arena into nested documents.
func datumDTO(d *data.Datum, arena *normalizer.Arena) map[string]interface{} {
	dto := structs.Map(d)

	switch {
	case d.Basal != nil:
		flatten(dto, structs.Map(d.Basal))
		if arena != nil {
			if suppressed := suppressedDTO(arena, d.Basal.Suppressed); suppressed != nil {
				dto["suppressed"] = suppressed
			}
		}
	case d.Bolus != nil:
		flatten(dto, structs.Map(d.Bolus))
	case d.Wizard != nil:
		flatten(dto, structs.Map(d.Wizard))
	case d.Glucose != nil:
		flatten(dto, structs.Map(d.Glucose))
	case d.Fill != nil:
		flatten(dto, structs.Map(d.Fill))
	}

	return dto
}

func suppressedDTO(arena *normalizer.Arena, h data.Handle) map[string]interface{} {
	node, ok := arena.Node(h)
	if !ok {
		return nil
	}
	dto := map[string]interface{}{
		"deliveryType": node.DeliveryType,
		"rate":         node.Rate,
		"duration":     node.DurationMs,
		"normalTime":   node.NormalTime,
	}
	if node.Percent != nil {
		dto["percent"] = *node.Percent
	}
	if next := suppressedDTO(arena, node.Next); next != nil {
		dto["suppressed"] = next
	}
	return dto
}

// glucoseStatsDTO renders statistics for transport, mapping the NaN
// insufficient-data sentinels to nulls since JSON carries no NaN.
func glucoseStatsDTO(s stats.GlucoseStats) map[string]interface{} {
	dto := structs.Map(s)
	sanitizeNaN(dto)
	return dto
}

func basalSegmentsDTO(segments []stats.DeliverySegment, arena *normalizer.Arena) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(segments))
	for _, segment := range segments {
		records := make([]map[string]interface{}, 0, len(segment.Data))
		for _, d := range segment.Data {
			records = append(records, datumDTO(d, arena))
		}
		out = append(out, map[string]interface{}{
			"deliveryType": segment.DeliveryType,
			"data":         records,
		})
	}
	return out
}

func flatten(dto, category map[string]interface{}) {
	for key, value := range category {
		dto[key] = value
	}
}

func sanitizeNaN(dto map[string]interface{}) {
	for key, value := range dto {
		switch v := value.(type) {
		case float64:
			if math.IsNaN(v) {
				dto[key] = nil
			}
		case map[string]interface{}:
			sanitizeNaN(v)
		}
	}
}
