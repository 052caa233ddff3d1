// Package validator performs structural acceptance of individual records
// before normalization. Validation is a pure partition: it never mutates the
// held set and rejected records are never retried.
package validator

import (
	"time"

	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
)

// Rejection reason codes, carried for diagnostics.
const (
	ReasonEmptyRecord       = "empty-record"
	ReasonMissingType       = "missing-type"
	ReasonUnknownType       = "unknown-type"
	ReasonTempBasalOverride = "temp-basal-override"
	ReasonReplyMessage      = "reply-message"
	ReasonMissingTime       = "missing-time"
	ReasonMalformedTime     = "malformed-time"
	ReasonImplausibleTime   = "implausible-time"
	ReasonBadStatus         = "bad-status"
)

var knownTypes = map[data.Type]struct{}{
	data.TypeBasal:            {},
	data.TypeBolus:            {},
	data.TypeWizard:           {},
	data.TypeCBG:              {},
	data.TypeSMBG:             {},
	data.TypeDeviceEvent:      {},
	data.TypePhysicalActivity: {},
	data.TypeMessage:          {},
	data.TypeUpload:           {},
	data.TypePumpSettings:     {},
}

// Rejected pairs a refused record with the reason it was refused.
type Rejected struct {
	Raw    map[string]interface{}
	Reason string
}

type Validator struct {
	defaultZone *time.Location
	logger      *zap.SugaredLogger
}

func NewValidator(defaultZone *time.Location, logger *zap.SugaredLogger) *Validator {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &Validator{
		defaultZone: defaultZone,
		logger:      logger,
	}
}

// Validate partitions a batch into decoded, accepted records and rejected
// records with reason codes.
func (v *Validator) Validate(batch []map[string]interface{}) ([]*data.Datum, []Rejected) {
	accepted := make([]*data.Datum, 0, len(batch))
	var rejected []Rejected

	for _, raw := range batch {
		datum, reason := v.validateOne(raw)
		if reason != "" {
			rejected = append(rejected, Rejected{Raw: raw, Reason: reason})
			continue
		}
		accepted = append(accepted, datum)
	}

	if len(rejected) > 0 {
		counts := map[string]int{}
		for _, r := range rejected {
			counts[r.Reason]++
		}
		v.logger.Infow("rejected records", "count", len(rejected), "reasons", counts)
	}
	return accepted, rejected
}

// ValidateOne applies the same shape rules to a single record; used by the
// note-edit path.
func (v *Validator) ValidateOne(raw map[string]interface{}) (*data.Datum, string) {
	return v.validateOne(raw)
}

func (v *Validator) validateOne(raw map[string]interface{}) (*data.Datum, string) {
	if len(raw) == 0 {
		return nil, ReasonEmptyRecord
	}

	datum, err := data.Decode(raw)
	if err != nil {
		return nil, ReasonMissingType
	}
	if datum.Type == "" {
		return nil, ReasonMissingType
	}
	if _, ok := knownTypes[datum.Type]; !ok {
		return nil, ReasonUnknownType
	}

	// A temporary basal override is not a first-class displayable record;
	// it only appears as the suppressed state of the basal that replaced it.
	if datum.Type == data.TypeBasal && datum.Basal != nil &&
		datum.Basal.DeliveryType == data.DeliveryTypeTemp {
		return nil, ReasonTempBasalOverride
	}

	// Only root notes are kept; replies are a thread feature of the
	// messaging service, not timeline events.
	if datum.Type == data.TypeMessage && datum.ParentMessage != "" {
		return nil, ReasonReplyMessage
	}

	if datum.Type == data.TypeDeviceEvent && datum.SubType == data.SubTypeStatus &&
		datum.HasAnnotation(data.AnnotationUnknownPrevious) {
		return nil, ReasonBadStatus
	}

	if datum.Time == "" {
		return nil, ReasonMissingTime
	}
	t, err := datetime.Parse(datum.Time, v.defaultZone)
	if err != nil {
		return nil, ReasonMalformedTime
	}
	if !datetime.IsPlausible(t) {
		return nil, ReasonImplausibleTime
	}

	return datum, ""
}
