package dataset

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tidepool-org/timeline/data"
)

var titleCaser = cases.Title(language.English)

// joinWizards back-references each wizard record and its bolus both ways, so
// either record's tooltip can reach the other without a scan.
func joinWizards(grouped map[data.Type][]*data.Datum) {
	boluses := make(map[string]*data.Datum, len(grouped[data.TypeBolus]))
	for _, d := range grouped[data.TypeBolus] {
		boluses[d.ID] = d
	}
	for _, d := range grouped[data.TypeWizard] {
		if d.Wizard == nil || d.Wizard.BolusID == "" {
			continue
		}
		if bolus, ok := boluses[d.Wizard.BolusID]; ok && bolus.Bolus != nil {
			bolus.Bolus.WizardID = d.ID
		}
	}
}

// latestManufacturer reads the pump manufacturer from the newest pumpSettings
// record, capitalized for display.
func latestManufacturer(pumpSettings []*data.Datum) string {
	for i := len(pumpSettings) - 1; i >= 0; i-- {
		if name := manufacturerOf(pumpSettings[i]); name != "" {
			return titleCaser.String(name)
		}
	}
	return ""
}

func manufacturerOf(d *data.Datum) string {
	if d.Payload == nil {
		return ""
	}
	if pump, ok := d.Payload["pump"].(map[string]interface{}); ok {
		if name, ok := pump["manufacturer"].(string); ok {
			return name
		}
	}
	name, _ := d.Payload["manufacturer"].(string)
	return name
}

// stampManufacturer attaches pump provenance to device events for tooltips.
func stampManufacturer(deviceEvents []*data.Datum, manufacturer string) {
	if manufacturer == "" {
		return
	}
	for _, d := range deviceEvents {
		d.Pump = &data.Pump{Manufacturer: manufacturer}
	}
}
