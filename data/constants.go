package data

// Type tags the record category.
type Type string

const (
	TypeBasal            Type = "basal"
	TypeBolus            Type = "bolus"
	TypeWizard           Type = "wizard"
	TypeCBG              Type = "cbg"
	TypeSMBG             Type = "smbg"
	TypeDeviceEvent      Type = "deviceEvent"
	TypePhysicalActivity Type = "physicalActivity"
	TypeMessage          Type = "message"
	TypeUpload           Type = "upload"
	TypePumpSettings     Type = "pumpSettings"
	TypeFill             Type = "fill"
)

// RequiredTypes are guaranteed present in the grouped collections, as empty
// slices when absent from the input, so downstream consumers never branch on
// a missing category.
var RequiredTypes = []Type{
	TypeBasal,
	TypeBolus,
	TypeWizard,
	TypeCBG,
	TypeSMBG,
	TypeDeviceEvent,
	TypePhysicalActivity,
	TypeMessage,
	TypeUpload,
	TypePumpSettings,
	TypeFill,
}

// DiabetesDataTypes define the dataset extent used for fill generation.
var DiabetesDataTypes = []Type{TypeBasal, TypeBolus, TypeCBG, TypeSMBG, TypeWizard}

// SubType refines deviceEvent records.
type SubType string

const (
	SubTypeStatus          SubType = "status"
	SubTypeReservoirChange SubType = "reservoirChange"
	SubTypePrime           SubType = "prime"
	SubTypeCalibration     SubType = "calibration"
	SubTypeConfidential    SubType = "confidential"
	SubTypeZen             SubType = "zen"
	SubTypeTimeChange      SubType = "timeChange"
	SubTypeDeviceParameter SubType = "deviceParameter"
)

// Basal delivery types.
const (
	DeliveryTypeScheduled = "scheduled"
	DeliveryTypeTemp      = "temp"
	DeliveryTypeSuspend   = "suspend"
	DeliveryTypeAutomated = "automated"
)

// Unit is a glucose unit system.
type Unit string

const (
	MgdL  Unit = "mg/dL"
	MmolL Unit = "mmol/L"
)

// MgdLPerMmolL converts mmol/L glucose values to mg/dL.
const MgdLPerMmolL = 18.01559

// DefaultSource is stamped on upload and pumpSettings records missing a
// source, and on synthesized time-change markers.
const DefaultSource = "Diabeloop"

// AnnotationUnknownPrevious marks device status records whose predecessor
// state was lost; such records are structurally unusable.
const AnnotationUnknownPrevious = "status/unknown-previous"

// MethodGuessed marks synthesized records whose placement was inferred rather
// than observed.
const MethodGuessed = "guessed"
