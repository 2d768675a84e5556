package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/LdDl/natmap"
	"github.com/LdDl/natmap/internal/config"
	"github.com/LdDl/natmap/internal/geomcodec"
	"github.com/LdDl/natmap/source/shapefile"
	"github.com/LdDl/natmap/store/postgres"
	"github.com/LdDl/natmap/store/sqlite"
	"github.com/pkg/errors"
)

// openWorkspace creates workspace of configured format. Dry run always keeps datasets in memory
func openWorkspace(ctx context.Context, c *config.Config, dryRun bool) (natmap.Workspace, error) {
	format := c.Outputs.Format
	if dryRun {
		format = config.FormatMemory
	}
	srid := geomcodec.SRID(c.Outputs.ProjectWebMercator)
	switch format {
	case config.FormatMemory:
		return natmap.NewMemoryWorkspace(), nil
	case config.FormatSQLite:
		if err := os.MkdirAll(c.Outputs.Workspace, 0o755); err != nil {
			return nil, errors.Wrapf(err, "Can't create workspace folder '%s'", c.Outputs.Workspace)
		}
		ws, err := sqlite.Open(filepath.Join(c.Outputs.Workspace, c.Outputs.GeodatabaseName), srid)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case config.FormatPostgres:
		if c.Outputs.DatabaseURL == "" {
			return nil, errors.New("outputs.database_url is required for postgres format")
		}
		ws, err := postgres.Connect(ctx, c.Outputs.DatabaseURL, srid)
		if err != nil {
			return nil, err
		}
		return ws, nil
	default:
		return nil, errors.Errorf("unknown outputs.format '%s'", format)
	}
}

func openSource(c *config.Config) natmap.Source {
	return shapefile.NewSource(c.Precisely.DataDir, c.Precisely.Version)
}
