package natmap

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
)

const osmGenerator = "natmap"

// Turn angle thresholds in degrees
const (
	straightTurnAngle = 30.0
	uTurnAngle        = 150.0
)

// OSMExport is street layer of map package in OSM model
type OSMExport struct {
	Data           *osm.OSM
	SkippedTurns   int
	nodeIDs        map[orb.Point]osm.NodeID
	unprojectWGS84 bool
}

// BuildOSM converts streets into ways, junctions into tagged nodes and resolved turns into restriction relations.
// When projected is true geometries are converted from Web Mercator back to WGS84
func BuildOSM(streets []*StreetSegment, turns []*TurnFeature, junctions []*Junction, projected bool) *OSMExport {
	export := &OSMExport{
		Data: &osm.OSM{
			Version:   "0.6",
			Generator: osmGenerator,
		},
		nodeIDs:        make(map[orb.Point]osm.NodeID),
		unprojectWGS84: projected,
	}
	byOID := make(map[int64]*StreetSegment, len(streets))
	for _, street := range streets {
		if len(street.Geom) < 2 {
			continue
		}
		byOID[street.ObjectID] = street
		way := &osm.Way{
			ID:      osm.WayID(street.ObjectID),
			Visible: true,
			Tags:    streetTags(street),
		}
		for _, pt := range street.Geom {
			node := export.node(pt)
			way.Nodes = append(way.Nodes, osm.WayNode{ID: node.ID, Lat: node.Lat, Lon: node.Lon})
		}
		export.Data.Ways = append(export.Data.Ways, way)
	}
	for _, junction := range junctions {
		node := export.node(junction.Geom)
		node.Tags = append(node.Tags,
			osm.Tag{Key: "junction", Value: "yes"},
			osm.Tag{Key: "level", Value: fmt.Sprintf("%d", junction.ZElev)},
		)
	}
	for _, turn := range turns {
		relation, ok := export.restrictionRelation(turn, byOID)
		if !ok {
			export.SkippedTurns++
			continue
		}
		relation.ID = osm.RelationID(len(export.Data.Relations) + 1)
		export.Data.Relations = append(export.Data.Relations, relation)
	}
	return export
}

// node returns node placed at the point creating it on first use
func (export *OSMExport) node(pt orb.Point) *osm.Node {
	if id, ok := export.nodeIDs[pt]; ok {
		return export.Data.Nodes[id-1]
	}
	id := osm.NodeID(len(export.Data.Nodes) + 1)
	export.nodeIDs[pt] = id
	lonLat := pt
	if export.unprojectWGS84 {
		lonLat = project.Point(pt, project.Mercator.ToWGS84)
	}
	node := &osm.Node{
		ID:      id,
		Lat:     lonLat.Lat(),
		Lon:     lonLat.Lon(),
		Visible: true,
	}
	export.Data.Nodes = append(export.Data.Nodes, node)
	return node
}

func streetTags(street *StreetSegment) osm.Tags {
	tags := osm.Tags{
		{Key: "highway", Value: highwayTypeOf(street).String()},
		{Key: "name", Value: street.Street},
		{Key: "ref:local_id", Value: street.FeatureID},
	}
	switch street.Oneway {
	case ONEWAY_FORWARD:
		tags = append(tags, osm.Tag{Key: "oneway", Value: "yes"})
	case ONEWAY_BACKWARD:
		tags = append(tags, osm.Tag{Key: "oneway", Value: "-1"})
	}
	if street.Speed > 0 {
		tags = append(tags, osm.Tag{Key: "maxspeed", Value: fmt.Sprintf("%d mph", street.Speed)})
	}
	if street.RoadClass == ROAD_CLASS_ROUNDABOUT {
		tags = append(tags, osm.Tag{Key: "junction", Value: "roundabout"})
	}
	if street.Traversable == 0 {
		tags = append(tags, osm.Tag{Key: "access", Value: "no"})
	}
	if street.FromElevation != 0 && street.FromElevation == street.ToElevation {
		tags = append(tags, osm.Tag{Key: "layer", Value: fmt.Sprintf("%d", street.FromElevation)})
	}
	if street.City != "" {
		tags = append(tags, osm.Tag{Key: "addr:city", Value: street.City})
	}
	if street.State != "" {
		tags = append(tags, osm.Tag{Key: "addr:state", Value: street.State})
	}
	return tags
}

// restrictionRelation builds relation with 'from' way, 'via' node (two edges) or ways (more edges) and 'to' way
func (export *OSMExport) restrictionRelation(turn *TurnFeature, streets map[int64]*StreetSegment) (*osm.Relation, bool) {
	legs := make([]*StreetSegment, 0, MAX_TURN_EDGES)
	for _, edge := range turn.Edges {
		if !edge.Filled {
			continue
		}
		if !edge.Resolved {
			return nil, false
		}
		street, ok := streets[edge.FID]
		if !ok {
			return nil, false
		}
		legs = append(legs, street)
	}
	if len(legs) < 2 {
		return nil, false
	}
	from, to := legs[0], legs[len(legs)-1]
	entry, ok := sharedEndpoint(from.Geom, legs[1].Geom)
	if !ok {
		return nil, false
	}
	exit, ok := sharedEndpoint(legs[len(legs)-2].Geom, to.Geom)
	if !ok {
		return nil, false
	}
	value, ok := restrictionValue(from.Geom, entry, to.Geom, exit)
	if !ok {
		return nil, false
	}
	relation := &osm.Relation{
		Visible: true,
		Tags: osm.Tags{
			{Key: "type", Value: "restriction"},
			{Key: "restriction", Value: value},
			{Key: "ref:restriction_id", Value: turn.RestrictionID},
		},
	}
	relation.Members = append(relation.Members, osm.Member{Type: osm.TypeWay, Ref: from.ObjectID, Role: "from"})
	if len(legs) == 2 {
		via := export.node(entry)
		relation.Members = append(relation.Members, osm.Member{Type: osm.TypeNode, Ref: int64(via.ID), Role: "via"})
	} else {
		for _, via := range legs[1 : len(legs)-1] {
			relation.Members = append(relation.Members, osm.Member{Type: osm.TypeWay, Ref: via.ObjectID, Role: "via"})
		}
	}
	relation.Members = append(relation.Members, osm.Member{Type: osm.TypeWay, Ref: to.ObjectID, Role: "to"})
	return relation, true
}

// sharedEndpoint returns endpoint common to both lines
func sharedEndpoint(a, b orb.LineString) (orb.Point, bool) {
	if len(a) == 0 || len(b) == 0 {
		return orb.Point{}, false
	}
	for _, p := range []orb.Point{a[len(a)-1], a[0]} {
		if samePoint(p, b[0]) || samePoint(p, b[len(b)-1]) {
			return p, true
		}
	}
	return orb.Point{}, false
}

// neighbourVertex returns vertex next to the endpoint of line
func neighbourVertex(line orb.LineString, endpoint orb.Point) (orb.Point, bool) {
	if len(line) < 2 {
		return orb.Point{}, false
	}
	if samePoint(line[0], endpoint) {
		return line[1], true
	}
	if samePoint(line[len(line)-1], endpoint) {
		return line[len(line)-2], true
	}
	return orb.Point{}, false
}

// restrictionValue classifies maneuver by signed angle between approach into entry point and departure from exit point
func restrictionValue(from orb.LineString, entry orb.Point, to orb.LineString, exit orb.Point) (string, bool) {
	before, ok := neighbourVertex(from, entry)
	if !ok {
		return "", false
	}
	after, ok := neighbourVertex(to, exit)
	if !ok {
		return "", false
	}
	ax, ay := entry[0]-before[0], entry[1]-before[1]
	bx, by := after[0]-exit[0], after[1]-exit[1]
	angle := math.Atan2(ax*by-ay*bx, ax*bx+ay*by) * 180 / math.Pi
	switch {
	case math.Abs(angle) <= straightTurnAngle:
		return "no_straight_on", true
	case math.Abs(angle) >= uTurnAngle:
		return "no_u_turn", true
	case angle > 0:
		return "no_left_turn", true
	default:
		return "no_right_turn", true
	}
}
