package natmap

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LdDl/ch"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// vertexKey identifies network vertex: coincident street ends connect only on the same elevation level
type vertexKey struct {
	pt    orb.Point
	level int
}

// networkSegment is undirected piece of network before it is turned into directed edges.
// Negative weight means that travel in that direction is not allowed
type networkSegment struct {
	ID         int64
	StreetOIDs []int64
	source     vertexKey
	target     vertexKey
	forward    float64
	backward   float64
	Geom       orb.LineString
}

// NetworkEdge is directed edge of network graph
type NetworkEdge struct {
	ID        int64
	SegmentID int64
	Source    int64
	Target    int64
	// Weight is travel time in minutes
	Weight float64
	// WasOneway is true when the opposite direction is not traversable
	WasOneway  bool
	StreetOIDs []int64
	Geom       orb.LineString
}

// NetworkStats counts outcome of network build
type NetworkStats struct {
	Segments         int
	Excluded         int
	Edges            int
	Vertices         int
	TurnRestrictions int
	SkippedTurns     int
}

// Network is routable graph assembled from national streets
type Network struct {
	Name       string
	Graph      *ch.Graph
	Edges      []*NetworkEdge
	Vertices   map[int64]orb.Point
	Contracted bool
	Stats      NetworkStats

	vertexIDs map[vertexKey]int64
	segments  []*networkSegment
	byStreet  map[int64]*networkSegment
}

func newNetwork(name string) *Network {
	return &Network{
		Name:      name,
		Graph:     &ch.Graph{},
		Vertices:  make(map[int64]orb.Point),
		vertexIDs: make(map[vertexKey]int64),
		byStreet:  make(map[int64]*networkSegment),
	}
}

// streetSegment returns network piece of traversable street or false for excluded one
func streetSegment(street *StreetSegment) (*networkSegment, bool) {
	if street.Traversable == 0 || len(street.Geom) < 2 {
		return nil, false
	}
	segment := &networkSegment{
		ID:         street.ObjectID,
		StreetOIDs: []int64{street.ObjectID},
		source:     vertexKey{pt: street.Geom[0], level: street.FromElevation},
		target:     vertexKey{pt: street.Geom[len(street.Geom)-1], level: street.ToElevation},
		forward:    -1,
		backward:   -1,
		Geom:       street.Geom,
	}
	if street.SpeedRight > 0 {
		segment.forward = street.RightTime
	}
	if street.SpeedLeft > 0 {
		segment.backward = street.LeftTime
	}
	if segment.forward < 0 && segment.backward < 0 {
		return nil, false
	}
	return segment, true
}

// BuildNetwork creates graph from national streets. Forward edge follows digitized direction and weighs RightTime,
// backward edge weighs LeftTime. Non-traversable streets and directions with zero speed produce no edges.
// Resolved two-edge turns are registered as turn restrictions
func BuildNetwork(name string, streets []*StreetSegment, turns []*TurnFeature, contract bool) (*Network, error) {
	segments := make([]*networkSegment, 0, len(streets))
	excluded := 0
	for _, street := range streets {
		segment, ok := streetSegment(street)
		if !ok {
			excluded++
			continue
		}
		segments = append(segments, segment)
	}
	net, err := assembleNetwork(name, segments, turns, contract)
	if err != nil {
		return nil, err
	}
	net.Stats.Excluded = excluded
	return net, nil
}

func assembleNetwork(name string, segments []*networkSegment, turns []*TurnFeature, contract bool) (*Network, error) {
	net := newNetwork(name)
	net.segments = segments
	net.Stats.Segments = len(segments)
	edgeID := int64(0)
	for _, segment := range segments {
		source := net.vertex(segment.source)
		target := net.vertex(segment.target)
		if err := net.Graph.CreateVertex(source); err != nil {
			return nil, errors.Wrap(err, "Can not create source vertex")
		}
		if err := net.Graph.CreateVertex(target); err != nil {
			return nil, errors.Wrap(err, "Can not create target vertex")
		}
		for _, streetOID := range segment.StreetOIDs {
			net.byStreet[streetOID] = segment
		}
		if segment.forward >= 0 {
			edgeID++
			if err := net.Graph.AddEdge(source, target, segment.forward); err != nil {
				return nil, errors.Wrap(err, "Can not wrap Source and Target vertices as Edge")
			}
			net.Edges = append(net.Edges, &NetworkEdge{
				ID:         edgeID,
				SegmentID:  segment.ID,
				Source:     source,
				Target:     target,
				Weight:     segment.forward,
				WasOneway:  segment.backward < 0,
				StreetOIDs: segment.StreetOIDs,
				Geom:       segment.Geom,
			})
		}
		if segment.backward >= 0 {
			edgeID++
			if err := net.Graph.AddEdge(target, source, segment.backward); err != nil {
				return nil, errors.Wrap(err, "Can not wrap Target and Source vertices as Edge")
			}
			reversed := segment.Geom.Clone()
			reversed.Reverse()
			net.Edges = append(net.Edges, &NetworkEdge{
				ID:         edgeID,
				SegmentID:  segment.ID,
				Source:     target,
				Target:     source,
				Weight:     segment.backward,
				WasOneway:  segment.forward < 0,
				StreetOIDs: segment.StreetOIDs,
				Geom:       reversed,
			})
		}
	}
	net.Stats.Edges = len(net.Edges)
	net.Stats.Vertices = len(net.Vertices)

	for _, turn := range turns {
		if net.addTurnRestriction(turn) {
			net.Stats.TurnRestrictions++
		} else {
			net.Stats.SkippedTurns++
		}
	}

	if contract && len(net.Edges) > 0 {
		zap.L().Info("Starting contraction process", zap.String("network", name))
		st := time.Now()
		net.Graph.PrepareContractionHierarchies()
		net.Contracted = true
		zap.L().Info("Done contraction process", zap.String("network", name), zap.Duration("elapsed", time.Since(st)))
	}
	return net, nil
}

func (net *Network) vertex(key vertexKey) int64 {
	if id, ok := net.vertexIDs[key]; ok {
		return id
	}
	id := int64(len(net.vertexIDs) + 1)
	net.vertexIDs[key] = id
	net.Vertices[id] = key.pt
	return id
}

// addTurnRestriction registers maneuver from the first turn edge into the second one through their shared vertex.
// Turns with other than two resolved edges can not be expressed on the graph and are skipped
func (net *Network) addTurnRestriction(turn *TurnFeature) bool {
	if turn.EdgesCount() != 2 || !turn.Edges[0].Resolved || !turn.Edges[1].Resolved {
		return false
	}
	from, okFrom := net.byStreet[turn.Edges[0].FID]
	to, okTo := net.byStreet[turn.Edges[1].FID]
	if !okFrom || !okTo || from == to {
		return false
	}
	via, fromKey, toKey, ok := sharedVertex(from, to)
	if !ok {
		return false
	}
	err := net.Graph.AddTurnRestriction(net.vertexIDs[fromKey], net.vertexIDs[via], net.vertexIDs[toKey])
	if err != nil {
		zap.L().Warn("Can't add turn restriction", zap.String("restriction_id", turn.RestrictionID), zap.Error(err))
		return false
	}
	return true
}

// sharedVertex returns common vertex of two segments and their opposite ends
func sharedVertex(a, b *networkSegment) (via, from, to vertexKey, ok bool) {
	switch {
	case a.target == b.source:
		return a.target, a.source, b.target, true
	case a.target == b.target:
		return a.target, a.source, b.source, true
	case a.source == b.source:
		return a.source, a.target, b.target, true
	case a.source == b.target:
		return a.source, a.target, b.source, true
	}
	return vertexKey{}, vertexKey{}, vertexKey{}, false
}

// VertexAt returns vertex id of street end at given point and elevation level
func (net *Network) VertexAt(pt orb.Point, level int) (int64, bool) {
	id, ok := net.vertexIDs[vertexKey{pt: pt, level: level}]
	return id, ok
}

// ShortestPath returns travel time and vertices of the fastest path. Negative cost means no path
func (net *Network) ShortestPath(source, target int64) (float64, []int64) {
	if !net.Contracted {
		return -1, nil
	}
	return net.Graph.ShortestPath(source, target)
}

// ExportToCSV writes '<dir>/<name>.csv' (edges), '<dir>/<name>_vertices.csv' and, for contracted graph,
// '<dir>/<name>_shortcuts.csv'. Geometries are written in given format
func (net *Network) ExportToCSV(dir string, format GeomFormat) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Can't create network folder")
	}
	fnameEdges := filepath.Join(dir, net.Name+".csv")
	fnameVertices := filepath.Join(dir, net.Name+"_vertices.csv")
	fnameShortcuts := filepath.Join(dir, net.Name+"_shortcuts.csv")

	if err := net.exportEdgesToCSV(fnameEdges, format); err != nil {
		return errors.Wrap(err, "Can't export edges")
	}
	if err := net.exportVerticesToCSV(fnameVertices, format); err != nil {
		return errors.Wrap(err, "Can't export vertices")
	}
	if net.Contracted {
		if err := net.Graph.ExportShortcutsToFile(fnameShortcuts); err != nil {
			return errors.Wrap(err, "Can't export shortcuts")
		}
	}
	return nil
}

func (net *Network) exportEdgesToCSV(fname string, format GeomFormat) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	// 		edge_id - int64, ID of generated edge
	// 		from_vertex_id - int64, ID of source vertex
	// 		to_vertex_id - int64, ID of target vertex
	// 		weight - float64, travel time in minutes
	// 		was_one_way - if street allows single direction only
	// 		street_oids - ObjectIDs of national streets forming the edge
	// 		geom - WKT or GeoJSON geometry
	err = writer.Write([]string{"edge_id", "from_vertex_id", "to_vertex_id", "weight", "was_one_way", "street_oids", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, edge := range net.Edges {
		oids := make([]string, len(edge.StreetOIDs))
		for i, oid := range edge.StreetOIDs {
			oids[i] = fmt.Sprintf("%d", oid)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", edge.ID),
			fmt.Sprintf("%d", edge.Source),
			fmt.Sprintf("%d", edge.Target),
			fmt.Sprintf("%f", edge.Weight),
			fmt.Sprintf("%t", edge.WasOneway),
			strings.Join(oids, ","),
			PrepareGeometry(edge.Geom, format),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write edge")
		}
	}
	return nil
}

func (net *Network) exportVerticesToCSV(fname string, format GeomFormat) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	// 		vertex_id - int64, ID of vertex
	// 		order_pos - int, position of vertex in hierarchies (evaluated by library)
	// 		importance - int, importance of vertex in graph (evaluated by library)
	// 		geom - WKT or GeoJSON geometry
	err = writer.Write([]string{"vertex_id", "order_pos", "importance", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	vertices := net.Graph.Vertices
	for i := 0; i < len(vertices); i++ {
		label := vertices[i].Label
		err = writer.Write([]string{
			fmt.Sprintf("%d", label),
			fmt.Sprintf("%d", vertices[i].OrderPos()),
			fmt.Sprintf("%d", vertices[i].Importance()),
			PrepareGeometry(net.Vertices[label], format),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write vertex")
		}
	}
	return nil
}
