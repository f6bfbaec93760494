/*
Package import_ provides the import sub command: it reads an OSM history
dump, slices every entity into validity intervals and bulk-loads the
resulting features into PostGIS.
*/
package import_

import (
	"os"

	"github.com/pkg/errors"

	"github.com/ohdm/chronotile/config"
	"github.com/ohdm/chronotile/database"
	"github.com/ohdm/chronotile/database/postgis"
	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/mapping"
	"github.com/ohdm/chronotile/parser"
	"github.com/ohdm/chronotile/slicer"
	"github.com/ohdm/chronotile/stats"
	"github.com/ohdm/chronotile/store"
)

const putBatchSize = 4096

// Run executes a full import of the history dump at historyPath.
func Run(conf *config.Config, historyPath string) error {
	class := mapping.Default()
	if conf.MappingFile != "" {
		var err error
		class, err = mapping.FromFile(conf.MappingFile)
		if err != nil {
			return err
		}
	}

	cutoff, err := conf.CutoffTime()
	if err != nil {
		return err
	}

	versions, err := store.Open(conf.CacheDir)
	if err != nil {
		return err
	}
	defer versions.Close()

	if err := readDump(versions, historyPath); err != nil {
		return err
	}

	pg, err := postgis.Open(postgis.Config{
		ConnectionParams: conf.Connection,
		Schema:           conf.Schema,
		Srid:             conf.Srid,
	})
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Init(); err != nil {
		return err
	}

	s := slicer.New(slicer.Config{Cutoff: cutoff, Srid: conf.Srid}, class)
	if err := writeFeatures(versions, s, pg); err != nil {
		return err
	}

	return pg.Finish()
}

// readDump loads every entity version of the history dump into the
// version store.
func readDump(versions *store.Store, historyPath string) error {
	defer log.StopStep(log.StartStep("Reading %s", historyPath))

	f, err := os.Open(historyPath)
	if err != nil {
		return errors.Wrap(err, "opening history dump")
	}
	defer f.Close()

	var (
		nodes     []element.NodeVersion
		ways      []element.WayVersion
		relations []element.RelationVersion
	)
	h := parser.Handler{
		Node: func(nv element.NodeVersion) error {
			nodes = append(nodes, nv)
			if len(nodes) == putBatchSize {
				err := versions.PutNodes(nodes)
				nodes = nodes[:0]
				return err
			}
			return nil
		},
		Way: func(wv element.WayVersion) error {
			ways = append(ways, wv)
			if len(ways) == putBatchSize {
				err := versions.PutWays(ways)
				ways = ways[:0]
				return err
			}
			return nil
		},
		Relation: func(rv element.RelationVersion) error {
			relations = append(relations, rv)
			if len(relations) == putBatchSize {
				err := versions.PutRelations(relations)
				relations = relations[:0]
				return err
			}
			return nil
		},
	}
	if err := parser.Parse(f, h); err != nil {
		return err
	}
	if err := versions.PutNodes(nodes); err != nil {
		return err
	}
	if err := versions.PutWays(ways); err != nil {
		return err
	}
	return versions.PutRelations(relations)
}

// writeFeatures slices all version chains and feeds the features to the
// database, relations first, then ways, then nodes.
func writeFeatures(versions *store.Store, s *slicer.Slicer, db database.FeatureStore) error {
	defer log.StopStep(log.StartStep("Writing features"))

	inserter, err := db.NewInserter()
	if err != nil {
		return err
	}
	progress := stats.NewProgress()
	defer progress.Stop()

	relChains := make(chan []element.RelationVersion, 64)
	relWriter := slicer.NewRelationWriter(s, versions, relChains, inserter, progress)
	relWriter.Start()
	err = versions.EachRelationChain(func(chain []element.RelationVersion) error {
		c := make([]element.RelationVersion, len(chain))
		copy(c, chain)
		relChains <- c
		return nil
	})
	close(relChains)
	if werr := relWriter.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	wayChains := make(chan []element.WayVersion, 64)
	wayWriter := slicer.NewWayWriter(s, wayChains, inserter, progress)
	wayWriter.Start()
	err = versions.EachWayChain(func(chain []element.WayVersion) error {
		c := make([]element.WayVersion, len(chain))
		copy(c, chain)
		for i := range c {
			if err := versions.ResolveWayNodes(&c[i]); err != nil {
				return err
			}
		}
		wayChains <- c
		return nil
	})
	close(wayChains)
	if werr := wayWriter.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	nodeChains := make(chan []element.NodeVersion, 64)
	nodeWriter := slicer.NewNodeWriter(s, nodeChains, inserter, progress)
	nodeWriter.Start()
	err = versions.EachNodeChain(func(chain []element.NodeVersion) error {
		c := make([]element.NodeVersion, len(chain))
		copy(c, chain)
		nodeChains <- c
		return nil
	})
	close(nodeChains)
	if werr := nodeWriter.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	return inserter.Close()
}
