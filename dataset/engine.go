package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/config"
	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
	"github.com/tidepool-org/timeline/normalizer"
	"github.com/tidepool-org/timeline/stats"
	"github.com/tidepool-org/timeline/timezone"
	"github.com/tidepool-org/timeline/validator"
)

var (
	ErrInvalidBatch    = errors.New("device data batch must be a non-nil array")
	ErrInvalidNote     = errors.New("note update must be a non-nil object")
	ErrIngestInFlight  = errors.New("an ingestion is already in progress")
	ErrNoData          = errors.New("no data has been ingested")
	ErrInvalidCategory = errors.New("statistics require a glucose category")
)

// TaskRunner executes one pipeline phase. The default runs phases inline; an
// embedding application can substitute a runner that yields between phases.
type TaskRunner func(task func())

var inlineRunner TaskRunner = func(task func()) { task() }

type Option func(*Engine)

func WithTaskRunner(runner TaskRunner) Option {
	return func(e *Engine) { e.runner = runner }
}

// WithIDGenerator substitutes the id source for synthesized records; tests
// use it for deterministic fixtures.
func WithIDGenerator(ids data.IDGenerator) Option {
	return func(e *Engine) { e.ids = ids }
}

// Engine owns the held set. Writes (AddBatch, EditNote) are serialized; reads
// take a snapshot reference under the read lock and never block ingestion,
// which builds the replacement set off to the side.
type Engine struct {
	cfg         *config.Config
	logger      *zap.SugaredLogger
	defaultZone *time.Location
	ids         data.IDGenerator
	runner      TaskRunner
	validator   *validator.Validator

	mu       sync.RWMutex
	inFlight bool
	current  *DataSet

	cacheMu sync.Mutex
	cache   *stats.Cache
}

func NewEngine(cfg *config.Config, logger *zap.SugaredLogger, opts ...Option) (*Engine, error) {
	zone, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	cache, err := stats.NewCache()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:         cfg,
		logger:      logger,
		defaultZone: zone,
		ids:         data.RandomID,
		runner:      inlineRunner,
		validator:   validator.NewValidator(zone, logger),
		cache:       cache,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddBatch ingests a batch of raw records and returns the number of records
// newly added to the held set. The whole pipeline runs over the merged set,
// so re-sending data is idempotent. The replacement set is built in full
// before the swap; a cancelled context leaves the previous set untouched.
func (e *Engine) AddBatch(ctx context.Context, batch []map[string]interface{}) (int, error) {
	if batch == nil {
		return 0, ErrInvalidBatch
	}
	if err := e.beginIngestion(); err != nil {
		return 0, err
	}
	defer e.endIngestion()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	existing := e.snapshotForRebuild()

	var (
		accepted []*data.Datum
		merged   []*data.Datum
		added    int
		next     = newDataSet()
	)

	e.runner(func() {
		accepted, _ = e.validator.Validate(batch)
	})
	// A fully-rejected batch mutates nothing: the held set, its markers and
	// the stats cache all stay as they were.
	if len(accepted) == 0 {
		e.logger.Infow("ingested batch", "batch", len(batch), "accepted", 0, "added", 0)
		return 0, nil
	}

	phases := queue.New()
	phases.Add(func() {
		merged, added = merge(accepted, existing)
	})
	phases.Add(func() {
		norm := normalizer.NewNormalizer(e.defaultZone, e.cfg.Units(), e.cfg.SampleWeights, e.ids, e.logger)
		for _, d := range merged {
			norm.Normalize(d)
		}
		next.Arena = norm.Arena()
		next.MaxBasalDuration = norm.MaxBasalDuration()
		sortByEpoch(merged)
	})
	phases.Add(func() {
		resolver := timezone.NewResolver(e.cfg.DefaultTimezone, e.ids, e.logger)
		result := resolver.Resolve(merged)
		next.Timeline = result.Timeline
		merged = append(merged, result.Markers...)
		merged = dedupeEpisodic(merged)
		sortByEpoch(merged)
		next.Data = merged
	})
	phases.Add(func() {
		next.index()
		joinWizards(next.Grouped)
		next.PhysicalActivities = next.Grouped[data.TypePhysicalActivity]
		next.ZenEvents = deviceEventsOf(next.Grouped, data.SubTypeZen)
		next.ConfidentialEvents = deviceEventsOf(next.Grouped, data.SubTypeConfidential)
		next.ParameterGroups = groupParameters(next.Grouped[data.TypeDeviceEvent])
		next.LatestPumpManufacturer = latestManufacturer(next.Grouped[data.TypePumpSettings])
		stampManufacturer(next.Grouped[data.TypeDeviceEvent], next.LatestPumpManufacturer)
	})
	phases.Add(func() {
		if start, end, ok := next.Extent(); ok {
			next.Fills = generateFills(e.cfg.FillClassesByHour(), start, end, next.Timeline, e.ids)
			next.Grouped[data.TypeFill] = next.Fills
		}
	})

	for phases.Length() > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		task := phases.Remove().(func())
		e.runner(task)
	}

	e.mu.Lock()
	e.current = next
	e.mu.Unlock()
	e.purgeStatsCache()

	e.logger.Infow("ingested batch",
		"batch", len(batch), "accepted", len(accepted), "added", added, "held", len(next.Data))
	return added, nil
}

// EditNote applies an updated raw note to the stored record with the same id:
// text and timestamp change in place, the set is re-sorted and re-indexed.
// The result is nil when the update is invalid or no such note is held. Edits
// are refused while an ingestion is in flight.
func (e *Engine) EditNote(ctx context.Context, updated map[string]interface{}) (*data.Datum, error) {
	if updated == nil {
		return nil, ErrInvalidNote
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edited, reason := e.validator.ValidateOne(updated)
	if reason != "" || edited.Type != data.TypeMessage || edited.ID == "" {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return nil, ErrIngestInFlight
	}
	if e.current == nil {
		return nil, nil
	}

	var stored *data.Datum
	for _, d := range e.current.Grouped[data.TypeMessage] {
		if d.ID == edited.ID {
			stored = d
			break
		}
	}
	if stored == nil {
		return nil, nil
	}

	norm := normalizer.NewNormalizer(e.defaultZone, e.cfg.Units(), e.cfg.SampleWeights, e.ids, e.logger)
	norm.Normalize(edited)

	stored.MessageText = edited.MessageText
	stored.Time = edited.Time
	stored.Epoch = edited.Epoch
	stored.NormalTime = edited.NormalTime
	stored.InputTime = datetime.ToISO(time.Now())

	// The note keeps its place in the resolved timeline: the zone applying at
	// its new instant, flagged guessed since it was not device-observed.
	if zone := e.current.ZoneAt(stored.Epoch); zone != "" {
		stored.Timezone = zone
		stored.GuessedTimezone = true
	}
	t := time.UnixMilli(stored.Epoch)
	if offset, err := datetime.DisplayOffset(stored.Timezone, t); err == nil {
		stored.DisplayOffset = offset
	}
	stored.LocalDayOfWeek = datetime.LocalDayOfWeek(t, stored.Timezone)
	stored.LocalDate = datetime.LocalDate(t, stored.Timezone)

	sortByEpoch(e.current.Data)
	e.current.index()
	e.purgeStatsCache()

	return stored, nil
}

// RangeQuery returns the held records of the category starting within
// [start, end); category "all" spans every category. Empty before any
// ingestion.
func (e *Engine) RangeQuery(category string, startEpoch, endEpoch int64) []*data.Datum {
	ds := e.snapshot()
	if ds == nil {
		return nil
	}
	return ds.Range(category, startEpoch, endEpoch)
}

// GlucoseStats summarizes the cbg or smbg readings of the window. Results are
// memoized until the next ingestion.
func (e *Engine) GlucoseStats(category string, startEpoch, endEpoch int64) (stats.GlucoseStats, error) {
	ds := e.snapshot()
	if ds == nil {
		return stats.GlucoseStats{}, ErrNoData
	}

	var dailyMin float64
	switch data.Type(category) {
	case data.TypeCBG:
		dailyMin = e.cfg.CBGDailyMin()
	case data.TypeSMBG:
		dailyMin = e.cfg.SMBGDailyMin
	default:
		return stats.GlucoseStats{}, ErrInvalidCategory
	}

	key := e.cache.Key("glucose", category, startEpoch, endEpoch)
	e.cacheMu.Lock()
	cached, ok := e.cache.Get(key)
	e.cacheMu.Unlock()
	if ok {
		return cached.(stats.GlucoseStats), nil
	}

	bounds := stats.BGBounds{TargetLower: e.cfg.BGTargetLower, TargetUpper: e.cfg.BGTargetUpper}
	result := stats.ComputeGlucoseStats(ds.Grouped[data.Type(category)], e.cfg.Units(), bounds, dailyMin, startEpoch, endEpoch)

	e.cacheMu.Lock()
	e.cache.Add(key, result)
	e.cacheMu.Unlock()
	return result, nil
}

// BolusTotal sums the bolus dose delivered within [start, end).
func (e *Engine) BolusTotal(startEpoch, endEpoch int64) (float64, error) {
	ds := e.snapshot()
	if ds == nil {
		return 0, ErrNoData
	}
	return stats.SumDelivered(ds.Grouped[data.TypeBolus], startEpoch, endEpoch), nil
}

// BasalSegments groups the window's basal records into contiguous
// delivery-type runs.
func (e *Engine) BasalSegments(startEpoch, endEpoch int64) ([]stats.DeliverySegment, error) {
	ds := e.snapshot()
	if ds == nil {
		return nil, ErrNoData
	}
	return stats.DeliverySegments(ds.Grouped[data.TypeBasal], startEpoch, endEpoch), nil
}

// FillSegments returns the current background fill segments.
func (e *Engine) FillSegments() []*data.Datum {
	ds := e.snapshot()
	if ds == nil {
		return nil
	}
	return ds.Fills
}

// TimezoneAt returns the zone applying at the instant per the resolved
// timeline; empty before any ingestion.
func (e *Engine) TimezoneAt(epoch int64) string {
	ds := e.snapshot()
	if ds == nil {
		return ""
	}
	return ds.ZoneAt(epoch)
}

// Note returns the held note with the given id, nil when none exists.
func (e *Engine) Note(id string) *data.Datum {
	ds := e.snapshot()
	if ds == nil {
		return nil
	}
	for _, d := range ds.Grouped[data.TypeMessage] {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// DataSet returns the current snapshot, nil before any ingestion. The
// snapshot is read-only.
func (e *Engine) DataSet() *DataSet {
	return e.snapshot()
}

func (e *Engine) snapshot() *DataSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

func (e *Engine) beginIngestion() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return ErrIngestInFlight
	}
	e.inFlight = true
	return nil
}

func (e *Engine) endIngestion() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}

// snapshotForRebuild deep-copies the held records so the pipeline can
// re-normalize them without touching the set readers see. Synthesized
// time-change markers are dropped; resolution regenerates them.
func (e *Engine) snapshotForRebuild() []*data.Datum {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil
	}
	out := make([]*data.Datum, 0, len(e.current.Data))
	for _, d := range e.current.Data {
		if d.SubType == data.SubTypeTimeChange && d.Method == data.MethodGuessed {
			continue
		}
		out = append(out, deepcopy.Copy(d).(*data.Datum))
	}
	return out
}

func (e *Engine) purgeStatsCache() {
	e.cacheMu.Lock()
	e.cache.Purge()
	e.cacheMu.Unlock()
}

// dedupeEpisodic removes superseded revisions of episodic events from the
// merged set, keeping the newest input time per event.
func dedupeEpisodic(records []*data.Datum) []*data.Datum {
	var episodic []*data.Datum
	for _, d := range records {
		if isEpisodic(d) {
			episodic = append(episodic, d)
		}
	}
	if len(episodic) == 0 {
		return records
	}

	winners := make(map[*data.Datum]struct{})
	for _, d := range latestByEvent(episodic) {
		winners[d] = struct{}{}
	}

	out := records[:0]
	for _, d := range records {
		if isEpisodic(d) {
			if _, ok := winners[d]; !ok {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

func isEpisodic(d *data.Datum) bool {
	switch d.Type {
	case data.TypePhysicalActivity, data.TypeMessage:
		return true
	case data.TypeDeviceEvent:
		return d.SubType == data.SubTypeZen || d.SubType == data.SubTypeConfidential
	}
	return false
}

func deviceEventsOf(grouped map[data.Type][]*data.Datum, subType data.SubType) []*data.Datum {
	out := []*data.Datum{}
	for _, d := range grouped[data.TypeDeviceEvent] {
		if d.SubType == subType {
			out = append(out, d)
		}
	}
	return out
}
