package config

import (
	"strconv"

	"github.com/kelseyhightower/envconfig"

	"github.com/tidepool-org/timeline/data"
)

type Config struct {
	HttpPort uint16 `envconfig:"TIDEPOOL_HTTP_SERVER_PORT" default:"8080" required:"true"`

	DefaultTimezone string `envconfig:"TIDEPOOL_DEFAULT_TIMEZONE" default:"UTC" required:"true"`
	BGUnits         string `envconfig:"TIDEPOOL_BG_UNITS" default:"mg/dL" required:"true"`

	// Glucose classification bounds, in BGUnits.
	BGTargetLower float64 `envconfig:"TIDEPOOL_BG_TARGET_LOWER" default:"70"`
	BGTargetUpper float64 `envconfig:"TIDEPOOL_BG_TARGET_UPPER" default:"180"`

	// Sample-sufficiency thresholds: a statistics window needs
	// CBGMaxDaily*CBGPercentForEnough weighted cbg samples per day, or
	// SMBGDailyMin smbg readings per day, before reporting a mean.
	CBGMaxDaily         float64 `envconfig:"TIDEPOOL_CBG_MAX_DAILY" default:"288"`
	CBGPercentForEnough float64 `envconfig:"TIDEPOOL_CBG_PERCENT_FOR_ENOUGH" default:"0.75"`
	SMBGDailyMin        float64 `envconfig:"TIDEPOOL_SMBG_DAILY_MIN" default:"4"`

	// SampleWeights maps device-id prefixes to the number of samples one
	// reading represents, for sensors with coarser native sampling intervals.
	SampleWeights map[string]int `envconfig:"TIDEPOOL_SAMPLE_WEIGHTS" default:"AbbottFreeStyleLibre:3"`

	// FillClasses maps local hours to background color classes; only classed
	// hours open a fill segment.
	FillClasses map[string]string `envconfig:"TIDEPOOL_FILL_CLASSES" default:"0:fillDarkest,3:fillDark,6:fillLighter,9:fillLight,12:fillLightest,15:fillLighter,18:fillDark,21:fillDarker"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

func (c *Config) Units() data.Unit {
	return data.Unit(c.BGUnits)
}

// CBGDailyMin is the derived weighted cbg sample minimum per day.
func (c *Config) CBGDailyMin() float64 {
	return c.CBGMaxDaily * c.CBGPercentForEnough
}

// FillClassesByHour converts the env-friendly string-keyed class map to the
// hour-keyed form the fill generator walks. Unparseable hours are skipped.
func (c *Config) FillClassesByHour() map[int]string {
	classes := make(map[int]string, len(c.FillClasses))
	for key, class := range c.FillClasses {
		if hour, err := strconv.Atoi(key); err == nil && hour >= 0 && hour < 24 {
			classes[hour] = class
		}
	}
	return classes
}
