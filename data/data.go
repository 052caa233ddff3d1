package data

// Datum is a single event from the device data stream. It is a tagged union
// over Type: exactly one of the category extensions is populated for any
// given record. Records are created by decoding the loosely-typed transport
// representation, then normalized and merged once, after which they are
// immutable except for the note-edit path and fill regeneration.
type Datum struct {
	ID      string  `mapstructure:"id" structs:"id,omitempty"`
	Type    Type    `mapstructure:"type" structs:"type"`
	SubType SubType `mapstructure:"subType" structs:"subType,omitempty"`

	// Time is the original device-relative timestamp as received from the
	// transport. It is consumed by the normalizer and never leaves the
	// engine; retaining it keeps normalization idempotent when the pipeline
	// re-runs over the whole merged set.
	Time string `mapstructure:"time" structs:"-"`

	Epoch           int64  `mapstructure:"-" structs:"epoch"`
	NormalTime      string `mapstructure:"-" structs:"normalTime,omitempty"`
	Timezone        string `mapstructure:"timezone" structs:"timezone,omitempty"`
	DisplayOffset   int    `mapstructure:"-" structs:"displayOffset"`
	GuessedTimezone bool   `mapstructure:"-" structs:"guessedTimezone"`
	LocalDayOfWeek  string `mapstructure:"-" structs:"localDayOfWeek,omitempty"`
	LocalDate       string `mapstructure:"-" structs:"localDate,omitempty"`

	Source   string `mapstructure:"source" structs:"source,omitempty"`
	DeviceID string `mapstructure:"deviceId" structs:"deviceId,omitempty"`
	UploadID string `mapstructure:"uploadId" structs:"uploadId,omitempty"`

	Annotations []Annotation `mapstructure:"annotations" structs:"annotations,omitempty"`

	// Duration-bearing records only. NormalEnd is always derived, never
	// user-supplied, and EpochEnd >= Epoch holds after normalization.
	EpochEnd  int64  `mapstructure:"-" structs:"epochEnd,omitempty"`
	NormalEnd string `mapstructure:"-" structs:"normalEnd,omitempty"`

	// Category extensions, decoded per Type by Decode rather than by tag so
	// that wire fields shared across categories (duration in particular) do
	// not collide.
	Basal    *Basal    `mapstructure:"-" structs:"-"`
	Bolus    *Bolus    `mapstructure:"-" structs:"-"`
	Wizard   *Wizard   `mapstructure:"-" structs:"-"`
	Glucose  *Glucose  `mapstructure:"-" structs:"-"`
	Duration *Duration `mapstructure:"-" structs:"duration,omitempty"`

	MessageText   string `mapstructure:"-" structs:"messageText,omitempty"`
	ParentMessage string `mapstructure:"-" structs:"-"`

	// Episodic events: EventID correlates revisions of the same logical
	// event, InputTime orders them.
	EventID   string `mapstructure:"eventId" structs:"eventId,omitempty"`
	InputTime string `mapstructure:"inputTime" structs:"inputTime,omitempty"`

	// Payload is retained for upload and pumpSettings records only, because
	// device provenance is displayed for those types.
	Payload map[string]interface{} `mapstructure:"payload" structs:"payload,omitempty"`

	Fill *Fill `mapstructure:"-" structs:"-"`

	// Time-change marker attributes, present on synthesized
	// deviceEvent/timeChange records.
	From   *ZoneChange `mapstructure:"from" structs:"from,omitempty"`
	To     *ZoneChange `mapstructure:"to" structs:"to,omitempty"`
	Method string      `mapstructure:"method" structs:"method,omitempty"`

	// Pump manufacturer provenance stamped onto device events from the
	// latest pumpSettings record.
	Pump *Pump `mapstructure:"-" structs:"pump,omitempty"`
}

// Annotation is a machine-readable caveat about data quality, consumed by the
// rendering layer for tooltips.
type Annotation struct {
	Code  string `mapstructure:"code" structs:"code"`
	Value string `mapstructure:"value" structs:"value,omitempty"`
}

// Basal carries the insulin delivery rate for a basal interval. Suppressed is
// a handle into the session's suppressed-chain arena; HandleNone means the
// record overrides nothing.
type Basal struct {
	DeliveryType string   `mapstructure:"deliveryType" structs:"deliveryType"`
	Rate         float64  `mapstructure:"rate" structs:"rate"`
	Percent      *float64 `mapstructure:"percent" structs:"percent,omitempty"`
	DurationMs   int64    `mapstructure:"duration" structs:"duration"`
	ScheduleName string   `mapstructure:"scheduleName" structs:"scheduleName,omitempty"`

	Suppressed Handle `mapstructure:"-" structs:"-"`

	// SuppressedRaw is the undecoded override chain as received; the
	// normalizer turns it into arena nodes.
	SuppressedRaw map[string]interface{} `mapstructure:"suppressed" structs:"-"`
}

// Handle indexes a suppressed-chain node in the session arena.
type Handle int

// HandleNone marks the end of a suppressed chain.
const HandleNone Handle = -1

type Bolus struct {
	Normal           float64  `mapstructure:"normal" structs:"normal"`
	ExpectedNormal   *float64 `mapstructure:"expectedNormal" structs:"expectedNormal,omitempty"`
	Extended         *float64 `mapstructure:"extended" structs:"extended,omitempty"`
	ExpectedExtended *float64 `mapstructure:"expectedExtended" structs:"expectedExtended,omitempty"`
	DurationMs       int64    `mapstructure:"duration" structs:"duration,omitempty"`

	// WizardID is set when a bolus calculator record has been joined.
	WizardID string `mapstructure:"-" structs:"wizard,omitempty"`
}

type Wizard struct {
	CarbInput   float64      `mapstructure:"carbInput" structs:"carbInput"`
	BolusID     string       `mapstructure:"bolus" structs:"bolus,omitempty"`
	Recommended *Recommended `mapstructure:"recommended" structs:"recommended,omitempty"`
}

// Recommended is the dose breakdown suggested by the bolus calculator.
type Recommended struct {
	Carb       *float64 `mapstructure:"carb" structs:"carb,omitempty"`
	Correction *float64 `mapstructure:"correction" structs:"correction,omitempty"`
	Net        *float64 `mapstructure:"net" structs:"net,omitempty"`
}

// Glucose is shared by cbg and smbg records.
type Glucose struct {
	Value float64 `mapstructure:"value" structs:"value"`
	Units Unit    `mapstructure:"units" structs:"units"`

	// SampleWeight reflects the sensor model's native sampling interval: a
	// reading from a coarser-sampling sensor counts as multiple samples in
	// sufficiency thresholds. Derived from the device identity before
	// transport fields are stripped.
	SampleWeight int `mapstructure:"-" structs:"-"`
}

// Duration is the {value, unit} duration carried by duration-bearing
// deviceEvent subtypes.
type Duration struct {
	Value float64 `mapstructure:"value" structs:"value"`
	Units string  `mapstructure:"units" structs:"units"`
}

// Fill is a synthetic background-shading segment; fill records are never
// ingested.
type Fill struct {
	ColorClass         string `structs:"colorClass"`
	IsMidnightBoundary bool   `structs:"isMidnightBoundary"`
}

// ZoneChange is one side of a time-change marker.
type ZoneChange struct {
	Time         string `mapstructure:"time" structs:"time"`
	TimeZoneName string `mapstructure:"timeZoneName" structs:"timeZoneName"`
}

type Pump struct {
	Manufacturer string `mapstructure:"-" structs:"manufacturer"`
}

// IsDiabetesData reports whether the record participates in the diabetes data
// extent used for fill generation and message trimming.
func (d *Datum) IsDiabetesData() bool {
	switch d.Type {
	case TypeBasal, TypeBolus, TypeWizard, TypeCBG, TypeSMBG:
		return true
	}
	return false
}

// End returns the epoch the record extends to: EpochEnd for duration-bearing
// records, Epoch otherwise.
func (d *Datum) End() int64 {
	if d.EpochEnd > d.Epoch {
		return d.EpochEnd
	}
	return d.Epoch
}

// HasAnnotation reports whether the record carries the given annotation code.
func (d *Datum) HasAnnotation(code string) bool {
	for _, a := range d.Annotations {
		if a.Code == code {
			return true
		}
	}
	return false
}
