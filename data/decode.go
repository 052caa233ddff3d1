package data

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode turns one loosely-typed transport record into a Datum. Common
// attributes are decoded by tag; category extensions are decoded per type so
// wire fields shared across categories keep their category-specific shapes.
// Malformed optional sub-structures are omitted rather than failing the
// record.
func Decode(raw map[string]interface{}) (*Datum, error) {
	d := &Datum{}
	if err := weaklyDecode(raw, d); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	// Notes arrive reshaped from the messages service: the timestamp and
	// text live under different keys and the type tag may be absent.
	if _, ok := raw["messagetext"]; ok && d.Type == "" {
		d.Type = TypeMessage
	}

	switch d.Type {
	case TypeBasal:
		basal := &Basal{Suppressed: HandleNone}
		if err := weaklyDecode(raw, basal); err != nil {
			return nil, fmt.Errorf("decoding basal: %w", err)
		}
		d.Basal = basal
	case TypeBolus:
		bolus := &Bolus{}
		if err := weaklyDecode(raw, bolus); err != nil {
			return nil, fmt.Errorf("decoding bolus: %w", err)
		}
		d.Bolus = bolus
	case TypeWizard:
		wizard := &Wizard{}
		if err := weaklyDecode(raw, wizard); err != nil {
			return nil, fmt.Errorf("decoding wizard: %w", err)
		}
		if wizard.Recommended != nil && wizard.Recommended.Carb == nil &&
			wizard.Recommended.Correction == nil && wizard.Recommended.Net == nil {
			wizard.Recommended = nil
		}
		d.Wizard = wizard
	case TypeCBG, TypeSMBG:
		glucose := &Glucose{Units: MgdL}
		if err := weaklyDecode(raw, glucose); err != nil {
			return nil, fmt.Errorf("decoding glucose: %w", err)
		}
		d.Glucose = glucose
	case TypeDeviceEvent, TypePhysicalActivity:
		if sub, ok := raw["duration"].(map[string]interface{}); ok {
			duration := &Duration{}
			if err := weaklyDecode(sub, duration); err == nil {
				d.Duration = duration
			}
		}
	case TypeMessage:
		d.MessageText, _ = stringField(raw, "messagetext", "messageText")
		d.ParentMessage, _ = stringField(raw, "parentmessage", "parentMessage")
		if d.Time == "" {
			d.Time, _ = stringField(raw, "timestamp")
		}
	}

	return d, nil
}

func weaklyDecode(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func stringField(raw map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
