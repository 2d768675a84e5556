package natmap

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MapPackageExt is extension of map package archive
const MapPackageExt = ".mmpk"

// Map package entries
const (
	packageStreetsEntry   = "streets.osm"
	packageSignpostsEntry = "signposts.geojson"
	packageLandmarksEntry = "landmarks.geojson"
	packageJunctionsEntry = "junctions.geojson"
	packageManifestEntry  = "manifest.yaml"
)

// PackageLayer describes one entry of map package
type PackageLayer struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Format   string `yaml:"format"`
	Features int    `yaml:"features"`
}

// PackageManifest is manifest.yaml of map package
type PackageManifest struct {
	Name      string         `yaml:"name"`
	RunID     string         `yaml:"run_id"`
	CreatedAt time.Time      `yaml:"created_at"`
	States    []string       `yaml:"states"`
	Projected bool           `yaml:"source_web_mercator"`
	Layers    []PackageLayer `yaml:"layers"`
}

// PackageContent is everything placed into map package
type PackageContent struct {
	Streets   []*StreetSegment
	Turns     []*TurnFeature
	Signposts []*SignpostFeature
	Landmarks []*ReferenceLandmark
	Junctions []*Junction
	// Projected is true when geometries are in Web Mercator
	Projected bool
}

// WriteMapPackage writes '<dir>/<name>.mmpk' zip archive and returns its path
func WriteMapPackage(dir string, manifest PackageManifest, content *PackageContent) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "Can't create package folder")
	}
	fname := filepath.Join(dir, manifest.Name+MapPackageExt)
	file, err := os.Create(fname)
	if err != nil {
		return "", errors.Wrap(err, "Can't create package file")
	}
	defer file.Close()

	archive := zip.NewWriter(file)
	osmExport := BuildOSM(content.Streets, content.Turns, content.Junctions, content.Projected)
	osmBytes, err := xml.MarshalIndent(osmExport.Data, "", " ")
	if err != nil {
		return "", errors.Wrap(err, "Can't marshal streets to OSM XML")
	}
	if err := writeEntry(archive, packageStreetsEntry, append([]byte(xml.Header), osmBytes...)); err != nil {
		return "", err
	}
	manifest.Layers = append(manifest.Layers, PackageLayer{Name: "streets", File: packageStreetsEntry, Format: "osm", Features: len(osmExport.Data.Ways)})

	unproject := func(pt orb.Point) orb.Point {
		if !content.Projected {
			return pt
		}
		return project.Point(pt, project.Mercator.ToWGS84)
	}

	layers := []struct {
		name  string
		entry string
		fc    *geojson.FeatureCollection
	}{
		{"signposts", packageSignpostsEntry, signpostCollection(content.Signposts, unproject)},
		{"landmarks", packageLandmarksEntry, landmarkCollection(content.Landmarks, content.Streets, unproject)},
		{"junctions", packageJunctionsEntry, junctionCollection(content.Junctions, unproject)},
	}
	for _, layer := range layers {
		data, err := layer.fc.MarshalJSON()
		if err != nil {
			return "", errors.Wrapf(err, "Can't marshal %s to GeoJSON", layer.name)
		}
		if err := writeEntry(archive, layer.entry, data); err != nil {
			return "", err
		}
		manifest.Layers = append(manifest.Layers, PackageLayer{Name: layer.name, File: layer.entry, Format: "geojson", Features: len(layer.fc.Features)})
	}

	manifest.Projected = content.Projected
	manifestBytes, err := yaml.Marshal(manifest)
	if err != nil {
		return "", errors.Wrap(err, "Can't marshal manifest")
	}
	if err := writeEntry(archive, packageManifestEntry, manifestBytes); err != nil {
		return "", err
	}
	if err := archive.Close(); err != nil {
		return "", errors.Wrap(err, "Can't finalize package")
	}
	return fname, nil
}

func writeEntry(archive *zip.Writer, name string, data []byte) error {
	w, err := archive.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create package entry '%s'", name)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, "Can't write package entry '%s'", name)
	}
	return nil
}

// ReadPackageEntry returns content of one entry of map package
func ReadPackageEntry(fname, entry string) ([]byte, error) {
	reader, err := zip.OpenReader(fname)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open package")
	}
	defer reader.Close()
	for _, f := range reader.File {
		if f.Name != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "Can't open package entry '%s'", entry)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.Errorf("no entry '%s' in package", entry)
}

func linesToCoordinates(lines orb.MultiLineString, unproject func(orb.Point) orb.Point) [][][]float64 {
	coords := make([][][]float64, len(lines))
	for i, line := range lines {
		coords[i] = make([][]float64, len(line))
		for j, pt := range line {
			p := unproject(pt)
			coords[i][j] = []float64{p.Lon(), p.Lat()}
		}
	}
	return coords
}

func signpostCollection(signposts []*SignpostFeature, unproject func(orb.Point) orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, signpost := range signposts {
		f := geojson.NewMultiLineStringFeature(linesToCoordinates(signpost.Geom, unproject)...)
		f.SetProperty("OBJECTID", signpost.ObjectID)
		f.SetProperty("SrcSignID", signpost.SrcSignID)
		if signpost.ExitName != "" {
			f.SetProperty("ExitName", signpost.ExitName)
		}
		for i := 0; i < SIGNPOST_SLOTS; i++ {
			if text := signpost.Branches[i].Text; text != "" {
				f.SetProperty(fmt.Sprintf("Branch%d", i), text)
				f.SetProperty(fmt.Sprintf("Branch%dLng", i), signpost.Branches[i].Lng)
			}
			if text := signpost.Towards[i].Text; text != "" {
				f.SetProperty(fmt.Sprintf("Toward%d", i), text)
				f.SetProperty(fmt.Sprintf("Toward%dLng", i), signpost.Towards[i].Lng)
			}
		}
		fc.AddFeature(f)
	}
	return fc
}

func landmarkCollection(landmarks []*ReferenceLandmark, streets []*StreetSegment, unproject func(orb.Point) orb.Point) *geojson.FeatureCollection {
	byOID := make(map[int64]*StreetSegment, len(streets))
	for _, street := range streets {
		byOID[street.ObjectID] = street
	}
	fc := geojson.NewFeatureCollection()
	for _, landmark := range landmarks {
		if !landmark.Edge.Resolved {
			continue
		}
		street, ok := byOID[landmark.Edge.FID]
		if !ok {
			continue
		}
		pt := unproject(pointAlong(street.Geom, landmark.ConfirmationPos))
		f := geojson.NewPointFeature([]float64{pt.Lon(), pt.Lat()})
		f.SetProperty("LandmarkID", landmark.LandmarkID)
		f.SetProperty("GuidanceType", landmark.GuidanceType)
		f.SetProperty("Edge1FID", landmark.Edge.FID)
		f.SetProperty("Edge1ConfirmationPos", landmark.ConfirmationPos)
		f.SetProperty("Importance", landmark.Importance)
		fc.AddFeature(f)
	}
	return fc
}

func junctionCollection(junctions []*Junction, unproject func(orb.Point) orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, junction := range junctions {
		pt := unproject(junction.Geom)
		f := geojson.NewPointFeature([]float64{pt.Lon(), pt.Lat()})
		f.SetProperty("NodeOID", junction.NodeOID)
		f.SetProperty("ZELEV", junction.ZElev)
		fc.AddFeature(f)
	}
	return fc
}
