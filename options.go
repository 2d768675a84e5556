package natmap

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ResolveMode selects how signpost edge references are resolved
type ResolveMode uint16

const (
	// RESOLVE_MODE_MEMORY rewrites records in process before they are written
	RESOLVE_MODE_MEMORY = ResolveMode(iota + 1)
	// RESOLVE_MODE_SQL runs bulk UPDATE statements against workspace once rows are loaded
	RESOLVE_MODE_SQL
)

func (iotaIdx ResolveMode) String() string {
	if iotaIdx < RESOLVE_MODE_MEMORY || iotaIdx > RESOLVE_MODE_SQL {
		return "undefined"
	}
	return [...]string{"memory", "sql"}[iotaIdx-1]
}

// ParseResolveMode converts configuration value into ResolveMode
func ParseResolveMode(s string) (ResolveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory":
		return RESOLVE_MODE_MEMORY, nil
	case "sql":
		return RESOLVE_MODE_SQL, nil
	default:
		return 0, errors.Errorf("unknown resolve mode '%s'", s)
	}
}

const (
	defaultTurnBatchSize     = 50000
	defaultSignpostBatchSize = 5000
	defaultXYTolerance       = 0.001
	defaultNetworkName       = "routing_ND"
	defaultDissolvedName     = "routing_ND_dissolved"
	defaultPackageName       = "national_streets"
	defaultLocatorName       = "national_locator"
)

// Options is pipeline configuration. It is built once and never mutated by pipeline
type Options struct {
	states               []string
	outputFolder         string
	turnBatchSize        int
	signpostBatchSize    int
	resolveMode          ResolveMode
	xyTolerance          float64
	projectWebMercator   bool
	buildNetwork         bool
	contractNetwork      bool
	dissolveNetwork      bool
	networkName          string
	dissolvedNetworkName string
	locatorName          string
	packageName          string
	geomFormat           GeomFormat
	runID                string
}

func (options *Options) String() string {
	return fmt.Sprintf(`
Pipeline parameters:
	states: '%s'
	output_folder: '%s'
	turn_batch_size: %d
	signpost_batch_size: %d
	resolve_mode: %s
	xy_tolerance: %f
	project web mercator?: %t
	build network?: %t
	contract network?: %t
	dissolve network?: %t
	network_name: '%s'
	dissolved_network_name: '%s'
	locator_name: '%s'
	package_name: '%s'
	geometry_format: %s
	run_id: '%s'
	`,
		strings.Join(options.states, ","),
		options.outputFolder,
		options.turnBatchSize,
		options.signpostBatchSize,
		options.resolveMode,
		options.xyTolerance,
		options.projectWebMercator,
		options.buildNetwork,
		options.contractNetwork,
		options.dissolveNetwork,
		options.networkName,
		options.dissolvedNetworkName,
		options.locatorName,
		options.packageName,
		options.geomFormat,
		options.runID,
	)
}

// NewOptions returns options with defaults overridden by given functional options
func NewOptions(options ...func(*Options)) Options {
	opts := Options{
		states:               US_STATES,
		turnBatchSize:        defaultTurnBatchSize,
		signpostBatchSize:    defaultSignpostBatchSize,
		resolveMode:          RESOLVE_MODE_MEMORY,
		xyTolerance:          defaultXYTolerance,
		projectWebMercator:   true,
		buildNetwork:         true,
		contractNetwork:      true,
		dissolveNetwork:      true,
		networkName:          defaultNetworkName,
		dissolvedNetworkName: defaultDissolvedName,
		locatorName:          defaultLocatorName,
		packageName:          defaultPackageName,
		geomFormat:           GEOM_FORMAT_WKT,
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}

func WithStates(states []string) func(*Options) {
	return func(options *Options) {
		options.states = states
	}
}

func WithOutputFolder(outputFolder string) func(*Options) {
	return func(options *Options) {
		options.outputFolder = outputFolder
	}
}

func WithTurnBatchSize(turnBatchSize int) func(*Options) {
	return func(options *Options) {
		options.turnBatchSize = turnBatchSize
	}
}

func WithSignpostBatchSize(signpostBatchSize int) func(*Options) {
	return func(options *Options) {
		options.signpostBatchSize = signpostBatchSize
	}
}

func WithResolveMode(resolveMode ResolveMode) func(*Options) {
	return func(options *Options) {
		options.resolveMode = resolveMode
	}
}

func WithXYTolerance(xyTolerance float64) func(*Options) {
	return func(options *Options) {
		options.xyTolerance = xyTolerance
	}
}

func WithWebMercator(projectWebMercator bool) func(*Options) {
	return func(options *Options) {
		options.projectWebMercator = projectWebMercator
	}
}

func WithNetwork(build, contract, dissolve bool) func(*Options) {
	return func(options *Options) {
		options.buildNetwork = build
		options.contractNetwork = contract
		options.dissolveNetwork = dissolve
	}
}

func WithNetworkNames(networkName, dissolvedNetworkName string) func(*Options) {
	return func(options *Options) {
		if networkName != "" {
			options.networkName = networkName
		}
		if dissolvedNetworkName != "" {
			options.dissolvedNetworkName = dissolvedNetworkName
		}
	}
}

func WithLocatorName(locatorName string) func(*Options) {
	return func(options *Options) {
		options.locatorName = locatorName
	}
}

func WithPackageName(packageName string) func(*Options) {
	return func(options *Options) {
		options.packageName = packageName
	}
}

func WithGeomFormat(geomFormat GeomFormat) func(*Options) {
	return func(options *Options) {
		options.geomFormat = geomFormat
	}
}

func WithRunID(runID string) func(*Options) {
	return func(options *Options) {
		options.runID = runID
	}
}

// States returns states to be processed in order
func (options Options) States() []string {
	return options.states
}

// ResolveMode returns configured resolve mode
func (options Options) ResolveMode() ResolveMode {
	return options.resolveMode
}

// GeomFormat returns format of geometries in exported network files
func (options Options) GeomFormat() GeomFormat {
	return options.geomFormat
}

// XYTolerance returns distance under which geometries are considered touching
func (options Options) XYTolerance() float64 {
	return options.xyTolerance
}
