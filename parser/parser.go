// Package parser reads OSM history dumps in line-delimited JSON. Every
// line is one entity version, deletions included.
package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/element"
)

// Handler receives parsed entity versions in file order.
type Handler struct {
	Node     func(element.NodeVersion) error
	Way      func(element.WayVersion) error
	Relation func(element.RelationVersion) error
}

type record struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Version   int32     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Visible   *bool     `json:"visible"`
	Tags      osm.Tags  `json:"tags"`
	Lat       float64   `json:"lat"`
	Long      float64   `json:"lon"`
	Refs      []int64   `json:"refs"`
	Members   []member  `json:"members"`
}

type member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// Parse reads entity versions from r and feeds them to h. Nil handler
// functions skip the entity type.
func Parse(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.Wrapf(err, "parsing line %d", line)
		}
		if err := dispatch(rec, h); err != nil {
			return errors.Wrapf(err, "handling line %d", line)
		}
	}
	return errors.Wrap(scanner.Err(), "reading history dump")
}

func dispatch(rec record, h Handler) error {
	visible := rec.Visible == nil || *rec.Visible
	elem := osm.Element{
		ID:   rec.ID,
		Tags: rec.Tags,
		Metadata: &osm.Metadata{
			Version:   rec.Version,
			Timestamp: rec.Timestamp,
		},
	}

	switch rec.Type {
	case "node":
		if h.Node == nil {
			return nil
		}
		n := osm.Node{Element: elem, Lat: rec.Lat, Long: rec.Long}
		return h.Node(element.NewNodeVersion(&n, visible))
	case "way":
		if h.Way == nil {
			return nil
		}
		w := osm.Way{Element: elem, Refs: rec.Refs}
		return h.Way(element.NewWayVersion(&w, visible))
	case "relation":
		if h.Relation == nil {
			return nil
		}
		r := osm.Relation{Element: elem, Members: relationMembers(rec.Members)}
		return h.Relation(element.NewRelationVersion(&r, visible))
	}
	return errors.Errorf("unknown entity type %q", rec.Type)
}

func relationMembers(members []member) []osm.Member {
	result := make([]osm.Member, 0, len(members))
	for _, m := range members {
		var t osm.MemberType
		switch m.Type {
		case "node":
			t = osm.NodeMember
		case "way":
			t = osm.WayMember
		case "relation":
			t = osm.RelationMember
		default:
			continue
		}
		result = append(result, osm.Member{ID: m.Ref, Type: t, Role: m.Role})
	}
	return result
}
