package natmap

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoStates is returned when every configured state has failed
var ErrNoStates = errors.New("no state has been processed")

// Signpost street table fields carrying attribute indexes
var signpostIndexFields = []string{"SignpostID", "Sequence", "EdgeFCID", "EdgeFID"}

// RunReport summarizes one pipeline run
type RunReport struct {
	RunID        string
	States       []string
	FailedStates []string

	Streets          int
	Nodes            int
	Turns            int
	Signposts        int
	SignpostRecords  int
	SkippedSignposts int
	Crossings        int
	Landmarks        int
	Junctions        int
	LocatorRecords   int

	TurnStats     TurnStats
	TurnRefs      ResolveStats
	SignpostRefs  ResolveStats
	LandmarkRefs  ResolveStats
	LandmarkStats LandmarkStats

	Network   *Network
	Dissolved *Network
	Locator   *Locator

	PackageFile string
}

// Pipeline builds national datasets from per-state source records
type Pipeline struct {
	source    Source
	workspace Workspace
	options   Options
	metrics   *Metrics
	logger    *zap.Logger
}

// NewPipeline prepares pipeline. Options are copied and never mutated afterwards
func NewPipeline(src Source, workspace Workspace, options Options) *Pipeline {
	if options.runID == "" {
		options.runID = uuid.NewString()
	}
	return &Pipeline{
		source:    src,
		workspace: workspace,
		options:   options,
		metrics:   NewMetrics(),
		logger:    zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", options.runID)),
	}
}

// Metrics returns collectors of the run
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// RunID returns identifier attached to logs and package manifest
func (p *Pipeline) RunID() string {
	return p.options.runID
}

// traceStage logs start, finish and elapsed time of the stage. Cancelled context stops the stage before it starts
func (p *Pipeline) traceStage(ctx context.Context, logger *zap.Logger, stage string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "Stage '%s' cancelled", stage)
	}
	logger = logger.With(zap.String("stage", stage))
	logger.Info("Stage started")
	st := time.Now()
	err := fn()
	elapsed := time.Since(st)
	p.metrics.StageDone(stage, elapsed)
	if err != nil {
		logger.Error("Stage failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return errors.Wrapf(err, "Stage '%s' failed", stage)
	}
	logger.Info("Stage done", zap.Duration("elapsed", elapsed))
	return nil
}

// Run processes every configured state, then merges them and writes national datasets.
// Failed state is reported and skipped. Failure of national stage aborts the run
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: p.options.runID}
	p.logger.Info("Pipeline started", zap.Strings("states", p.options.states))
	st := time.Now()

	collected := make([]*StateData, 0, len(p.options.states))
	for _, state := range p.options.states {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "Pipeline cancelled")
		}
		data, err := p.processState(ctx, state)
		if err != nil {
			if ctx.Err() != nil {
				return report, errors.Wrap(ctx.Err(), "Pipeline cancelled")
			}
			p.logger.Error("State failed, continue with next one", zap.String("state", state), zap.Error(err))
			p.metrics.StateFailed()
			report.FailedStates = append(report.FailedStates, state)
			continue
		}
		collected = append(collected, data)
	}
	if len(collected) == 0 {
		return report, ErrNoStates
	}
	if err := p.runNational(ctx, collected, report); err != nil {
		return report, err
	}
	p.logger.Info("Pipeline done",
		zap.Strings("states", report.States),
		zap.Strings("failed_states", report.FailedStates),
		zap.Duration("elapsed", time.Since(st)),
	)
	return report, nil
}

// processState runs extraction, classification, node filtering and signpost reconstruction of one state
func (p *Pipeline) processState(ctx context.Context, state string) (*StateData, error) {
	logger := p.logger.With(zap.String("state", state))
	var data *StateData
	err := p.traceStage(ctx, logger, "extract", func() error {
		var err error
		data, err = ExtractState(ctx, p.source, state)
		if err != nil {
			return err
		}
		p.metrics.Dropped(StreetsSchema.Name, "ferry", data.Stats.Ferries)
		p.metrics.Dropped(NodesSchema.Name, "low_valence", data.Stats.LowValenceNodes)
		p.metrics.Dropped(TurnsSchema.Name, "not_prohibited", data.Stats.FilteredRestrictions)
		if p.options.projectWebMercator {
			ProjectState(data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.traceStage(ctx, logger, "classify", func() error {
		cities := AssignCities(data.Streets, data.Towns)
		stats := ClassifyStreets(data.Streets)
		p.metrics.Dropped(StreetsSchema.Name, "classify_failed", stats.Skipped)
		logger.Info("Streets classified",
			zap.Int("classified", stats.Classified),
			zap.Int("skipped", stats.Skipped),
			zap.Int("with_city", cities),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.traceStage(ctx, logger, "filter_nodes", func() error {
		before := len(data.Nodes)
		data.Nodes = FilterNodes(data.Nodes, data.Streets, p.options.xyTolerance)
		p.metrics.Dropped(NodesSchema.Name, "not_touching_street", before-len(data.Nodes))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.traceStage(ctx, logger, "signposts", func() error {
		lookup := NewStreetLookup(data.Streets)
		AssignLegLocations(data.RestrictionLegs, lookup)
		stats, err := BuildSignposts(lookup, data.SignpostIDs, data.SignpostRows,
			func(feature *SignpostFeature, records []*SignpostStreetRecord) error {
				data.Signposts = append(data.Signposts, feature)
				data.SignpostRecords = append(data.SignpostRecords, records...)
				return nil
			},
			func(skip *SkippedSignpost) error {
				data.SkippedSignposts = append(data.SkippedSignposts, skip)
				return nil
			},
		)
		if err != nil {
			return err
		}
		for reason, n := range stats.Skipped {
			p.metrics.Dropped(SignpostFeaturesSchema.Name, string(reason), n)
		}
		p.metrics.Dropped(SignpostFeaturesSchema.Name, "duplicate", stats.Duplicates)
		logger.Info("Signposts built",
			zap.Int("groups", stats.Groups),
			zap.Int("built", stats.Built),
			zap.Int("records", stats.Records),
			zap.Int("duplicates", stats.Duplicates),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// newWriter returns batch writer reporting flushed rows to metrics
func (p *Pipeline) newWriter(schema *Schema, threshold int) *BatchWriter {
	return NewBatchWriter(p.workspace, schema, threshold).OnFlush(func(n int64) {
		p.metrics.Written(schema.Name, n)
	})
}

// writeRows writes n rows produced by row function through batch writer
func (p *Pipeline) writeRows(ctx context.Context, schema *Schema, threshold, n int, row func(i int) []any) error {
	writer := p.newWriter(schema, threshold)
	for i := 0; i < n; i++ {
		if err := writer.Write(ctx, row(i)); err != nil {
			return err
		}
	}
	return writer.Flush(ctx)
}

// runNational merges states and writes every national dataset
func (p *Pipeline) runNational(ctx context.Context, collected []*StateData, report *RunReport) error {
	logger := p.logger
	opts := p.options
	var national *NationalData
	var resolver *Resolver
	var turns []*TurnFeature
	var crossings []*RailroadCrossing
	var landmarks []*ReferenceLandmark
	var junctions []*Junction

	err := p.traceStage(ctx, logger, "merge", func() error {
		national = MergeStates(collected)
		report.States = national.States
		report.Streets = len(national.Streets)
		report.Nodes = len(national.Nodes)
		for _, schema := range Schemas() {
			if err := p.workspace.CreateTable(ctx, schema); err != nil {
				return errors.Wrapf(err, "Can't create dataset '%s'", schema.Name)
			}
		}
		if err := p.writeRows(ctx, StreetsSchema, opts.turnBatchSize, len(national.Streets), func(i int) []any {
			return StreetRow(national.Streets[i])
		}); err != nil {
			return err
		}
		if err := p.writeRows(ctx, NodesSchema, opts.turnBatchSize, len(national.Nodes), func(i int) []any {
			return NodeRow(national.Nodes[i])
		}); err != nil {
			return err
		}
		resolver = NewResolver(DATASET_STREETS, national.Streets, national.Signposts)
		logger.Info("States merged",
			zap.Int("streets", len(national.Streets)),
			zap.Int("nodes", len(national.Nodes)),
			zap.Int("duplicate_local_ids", national.DuplicateLocalIDs),
		)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.traceStage(ctx, logger, "turns", func() error {
		writer := p.newWriter(TurnsSchema, opts.turnBatchSize)
		var oid int64
		stats, err := BuildTurns(national.RestrictionLegs, func(turn *TurnFeature) error {
			refs := resolver.ResolveTurns([]*TurnFeature{turn})
			report.TurnRefs.Resolved += refs.Resolved
			report.TurnRefs.Unresolved += refs.Unresolved
			oid++
			turns = append(turns, turn)
			return writer.Write(ctx, TurnRow(oid, turn))
		})
		if err != nil {
			return err
		}
		if err := writer.Flush(ctx); err != nil {
			return err
		}
		report.TurnStats = stats
		report.Turns = len(turns)
		p.metrics.Dropped(TurnsSchema.Name, "too_many_edges", stats.Oversized)
		p.metrics.Dropped(TurnsSchema.Name, "too_few_edges", stats.Undersized)
		p.metrics.References(TurnsSchema.Name, report.TurnRefs)
		logger.Info("Turns built",
			zap.Int("groups", stats.Groups),
			zap.Int("converted", stats.Converted),
			zap.Int("batches", writer.Flushes()),
		)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.traceStage(ctx, logger, "signposts", func() error {
		if err := p.writeRows(ctx, SignpostFeaturesSchema, opts.signpostBatchSize, len(national.Signposts), func(i int) []any {
			return SignpostFeatureRow(national.Signposts[i])
		}); err != nil {
			return err
		}
		if opts.resolveMode == RESOLVE_MODE_MEMORY {
			report.SignpostRefs = resolver.ResolveSignpostRecords(national.SignpostRecords)
			p.metrics.References(SignpostStreetsSchema.Name, report.SignpostRefs)
		}
		if err := p.writeRows(ctx, SignpostStreetsSchema, opts.signpostBatchSize, len(national.SignpostRecords), func(i int) []any {
			return SignpostStreetRow(int64(i+1), national.SignpostRecords[i])
		}); err != nil {
			return err
		}
		if opts.resolveMode == RESOLVE_MODE_SQL {
			statements := []string{
				SignpostEdgeUpdateSQL(SignpostStreetsSchema.Name, StreetsSchema.Name),
				SignpostFCIDUpdateSQL(SignpostStreetsSchema.Name, DATASET_STREETS),
				SignpostIDUpdateSQL(SignpostStreetsSchema.Name, SignpostFeaturesSchema.Name),
			}
			for _, statement := range statements {
				n, err := p.workspace.Exec(ctx, statement)
				if err != nil {
					return errors.Wrap(err, "Can't resolve signpost references")
				}
				logger.Debug("Statement executed", zap.String("statement", statement), zap.Int64("rows", n))
			}
		}
		if err := p.writeRows(ctx, SignpostSkipsSchema, opts.signpostBatchSize, len(national.SkippedSignposts), func(i int) []any {
			return SkippedSignpostRow(int64(i+1), national.SkippedSignposts[i])
		}); err != nil {
			return err
		}
		for _, field := range signpostIndexFields {
			if err := p.workspace.AddIndex(ctx, SignpostStreetsSchema, field); err != nil {
				return errors.Wrapf(err, "Can't index '%s'", field)
			}
		}
		report.Signposts = len(national.Signposts)
		report.SignpostRecords = len(national.SignpostRecords)
		report.SkippedSignposts = len(national.SkippedSignposts)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.traceStage(ctx, logger, "landmarks", func() error {
		crossings = DetectCrossings(national.Streets, national.Railroads)
		if err := p.writeRows(ctx, CrossingsSchema, opts.signpostBatchSize, len(crossings), func(i int) []any {
			return CrossingRow(int64(i+1), crossings[i])
		}); err != nil {
			return err
		}
		var stats LandmarkStats
		landmarks, stats = BuildReferenceLandmarks(crossings, national.Streets)
		report.LandmarkRefs = resolver.ResolveLandmarks(landmarks)
		p.metrics.References(LandmarksSchema.Name, report.LandmarkRefs)
		p.metrics.Dropped(LandmarksSchema.Name, "unknown_street", stats.Skipped)
		report.LandmarkStats = stats
		report.Crossings = len(crossings)
		report.Landmarks = len(landmarks)
		return p.writeRows(ctx, LandmarksSchema, opts.signpostBatchSize, len(landmarks), func(i int) []any {
			return LandmarkRow(int64(i+1), landmarks[i])
		})
	})
	if err != nil {
		return err
	}

	err = p.traceStage(ctx, logger, "junctions", func() error {
		junctions = FindJunctions(national.Nodes, national.Streets, opts.xyTolerance)
		report.Junctions = len(junctions)
		return p.writeRows(ctx, JunctionsSchema, opts.signpostBatchSize, len(junctions), func(i int) []any {
			return JunctionRow(int64(i+1), junctions[i])
		})
	})
	if err != nil {
		return err
	}

	err = p.traceStage(ctx, logger, "locator", func() error {
		report.Locator = BuildLocator(opts.locatorName, national.Streets)
		records := report.Locator.Records()
		report.LocatorRecords = len(records)
		return p.writeRows(ctx, LocatorSchema, opts.turnBatchSize, len(records), func(i int) []any {
			return LocatorRow(int64(i+1), records[i])
		})
	})
	if err != nil {
		return err
	}

	if opts.buildNetwork {
		err = p.traceStage(ctx, logger, "network", func() error {
			var err error
			report.Network, err = BuildNetwork(opts.networkName, national.Streets, turns, opts.contractNetwork)
			if err != nil {
				return err
			}
			logger.Info("Network built", zap.Any("stats", report.Network.Stats))
			if opts.dissolveNetwork {
				report.Dissolved, err = DissolveNetwork(opts.dissolvedNetworkName, national.Streets, turns, opts.contractNetwork)
				if err != nil {
					return err
				}
				logger.Info("Network dissolved", zap.Any("stats", report.Dissolved.Stats))
			}
			if opts.outputFolder == "" {
				return nil
			}
			dir := filepath.Join(opts.outputFolder, "network")
			if err := report.Network.ExportToCSV(dir, opts.geomFormat); err != nil {
				return err
			}
			if report.Dissolved != nil {
				return report.Dissolved.ExportToCSV(dir, opts.geomFormat)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if opts.outputFolder == "" {
		return nil
	}
	return p.traceStage(ctx, logger, "package", func() error {
		manifest := PackageManifest{
			Name:      opts.packageName,
			RunID:     opts.runID,
			CreatedAt: time.Now().UTC(),
			States:    national.States,
		}
		fname, err := WriteMapPackage(opts.outputFolder, manifest, &PackageContent{
			Streets:   national.Streets,
			Turns:     turns,
			Signposts: national.Signposts,
			Landmarks: landmarks,
			Junctions: junctions,
			Projected: opts.projectWebMercator,
		})
		if err != nil {
			return err
		}
		report.PackageFile = fname
		logger.Info("Map package written", zap.String("file", fname))
		return nil
	})
}
