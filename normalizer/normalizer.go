// Package normalizer converts accepted records from device-relative
// timestamps to absolute instants and derives duration end-instants. It never
// fails an individual record: malformed optional sub-structures are omitted
// and logged.
package normalizer

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
)

type Normalizer struct {
	defaultZone   *time.Location
	units         data.Unit
	sampleWeights map[string]int
	ids           data.IDGenerator
	logger        *zap.SugaredLogger

	arena            *Arena
	maxBasalDuration int64
}

func NewNormalizer(defaultZone *time.Location, units data.Unit, sampleWeights map[string]int, ids data.IDGenerator, logger *zap.SugaredLogger) *Normalizer {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	if ids == nil {
		ids = data.RandomID
	}
	return &Normalizer{
		defaultZone:   defaultZone,
		units:         units,
		sampleWeights: sampleWeights,
		ids:           ids,
		logger:        logger,
		arena:         NewArena(),
	}
}

// Arena returns the suppressed-chain arena built while normalizing.
func (n *Normalizer) Arena() *Arena {
	return n.arena
}

// MaxBasalDuration returns the longest basal duration seen this session, in
// milliseconds. The rendering layer sizes its lookahead windows with it.
func (n *Normalizer) MaxBasalDuration() int64 {
	return n.maxBasalDuration
}

// Normalize computes the record's absolute instant and derived fields in
// place.
func (n *Normalizer) Normalize(d *data.Datum) {
	if d.ID == "" {
		d.ID = n.ids()
	}

	if d.Time != "" {
		t, err := datetime.Parse(d.Time, n.defaultZone)
		if err == nil {
			d.Epoch = datetime.Epoch(t)
			d.NormalTime = datetime.EpochToISO(d.Epoch)
		} else {
			// The validator guarantees parseable times for ingested
			// records; this only trips on internally constructed ones.
			n.logger.Warnw("unparseable time during normalization", "id", d.ID, "time", d.Time)
		}
	}

	switch d.Type {
	case data.TypeBasal:
		n.normalizeBasal(d)
	case data.TypeCBG, data.TypeSMBG:
		n.normalizeGlucose(d)
	case data.TypeDeviceEvent, data.TypePhysicalActivity:
		n.normalizeDuration(d)
	}

	n.normalizeEpisodic(d)
	n.stripTransportFields(d)
}

func (n *Normalizer) normalizeBasal(d *data.Datum) {
	basal := d.Basal
	if basal == nil {
		return
	}
	if basal.DeliveryType == data.DeliveryTypeSuspend {
		// Suspension delivers nothing regardless of any reported rate.
		basal.Rate = 0
	}
	if basal.DurationMs < 0 {
		basal.DurationMs = 0
	}
	d.EpochEnd = d.Epoch + basal.DurationMs
	d.NormalEnd = datetime.EpochToISO(d.EpochEnd)
	if basal.DurationMs > n.maxBasalDuration {
		n.maxBasalDuration = basal.DurationMs
	}
	basal.Suppressed = n.buildSuppressedChain(d, basal.SuppressedRaw)
}

// buildSuppressedChain walks the raw override chain into arena nodes,
// innermost first so every node references an existing handle. Links missing
// a delivery type are dropped without affecting the parent record.
func (n *Normalizer) buildSuppressedChain(d *data.Datum, raw map[string]interface{}) data.Handle {
	var links []map[string]interface{}
	for cursor := raw; cursor != nil && len(links) < MaxSuppressedDepth; {
		links = append(links, cursor)
		next, _ := cursor["suppressed"].(map[string]interface{})
		cursor = next
	}

	head := data.HandleNone
	for i := len(links) - 1; i >= 0; i-- {
		link := links[i]
		deliveryType, _ := link["deliveryType"].(string)
		if deliveryType == "" {
			n.logger.Debugw("dropping malformed suppressed link", "basal", d.ID)
			continue
		}
		node := SuppressedNode{
			DeliveryType: deliveryType,
			Rate:         floatField(link, "rate"),
			Percent:      floatPointer(link, "percent"),
			// An override shares its parent's interval.
			DurationMs: d.Basal.DurationMs,
			NormalTime: d.NormalTime,
			Next:       head,
		}
		// A temp override reporting no rate of its own delivers a
		// percentage of the scheduled rate it suppressed.
		if node.DeliveryType == data.DeliveryTypeTemp && node.Rate == 0 && node.Percent != nil {
			if inner, ok := n.arena.Node(head); ok &&
				inner.DeliveryType == data.DeliveryTypeScheduled && inner.Rate >= 0 {
				node.Rate = *node.Percent * inner.Rate
			}
		}
		head = n.arena.add(node)
	}
	return head
}

func (n *Normalizer) normalizeGlucose(d *data.Datum) {
	glucose := d.Glucose
	if glucose == nil {
		return
	}
	if glucose.Units == "" {
		glucose.Units = n.units
	}
	if glucose.Units != n.units {
		if n.units == data.MgdL {
			glucose.Value = glucose.Value * data.MgdLPerMmolL
		} else {
			glucose.Value = glucose.Value / data.MgdLPerMmolL
		}
		glucose.Units = n.units
	}
}

func (n *Normalizer) normalizeDuration(d *data.Datum) {
	if d.Duration == nil {
		return
	}
	ms := durationToMs(d.Duration)
	if ms < 0 {
		ms = 0
	}
	d.EpochEnd = d.Epoch + ms
	d.NormalEnd = datetime.EpochToISO(d.EpochEnd)
}

// normalizeEpisodic defaults the correlation id and revision timestamp for
// event types that may be re-transmitted with corrections.
func (n *Normalizer) normalizeEpisodic(d *data.Datum) {
	episodic := d.Type == data.TypePhysicalActivity ||
		d.Type == data.TypeMessage ||
		(d.Type == data.TypeDeviceEvent &&
			(d.SubType == data.SubTypeZen || d.SubType == data.SubTypeConfidential))
	if !episodic {
		return
	}
	if d.EventID == "" {
		d.EventID = d.ID
	}
	if d.InputTime == "" {
		d.InputTime = d.NormalTime
	}
}

// stripTransportFields removes device identity and storage metadata, except
// on upload and pumpSettings records, whose provenance the UI displays. The
// sample weight is captured first since it derives from the device model.
func (n *Normalizer) stripTransportFields(d *data.Datum) {
	if d.Glucose != nil && d.Glucose.SampleWeight == 0 {
		d.Glucose.SampleWeight = n.sampleWeight(d.DeviceID)
	}
	switch d.Type {
	case data.TypeUpload, data.TypePumpSettings:
		if d.Source == "" {
			d.Source = data.DefaultSource
		}
	default:
		d.DeviceID = ""
		d.UploadID = ""
		d.Payload = nil
	}
}

func (n *Normalizer) sampleWeight(deviceID string) int {
	for prefix, weight := range n.sampleWeights {
		if prefix != "" && strings.HasPrefix(deviceID, prefix) {
			return weight
		}
	}
	return 1
}

func durationToMs(d *data.Duration) int64 {
	switch d.Units {
	case "milliseconds", "ms":
		return int64(d.Value)
	case "seconds", "s":
		return int64(d.Value * 1000)
	case "minutes", "m":
		return int64(d.Value) * datetime.MsInMinute
	default:
		// Duration-bearing events report hours unless they say otherwise.
		return int64(d.Value * float64(datetime.MsInHour))
	}
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func floatPointer(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
