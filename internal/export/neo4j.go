package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
)

// Neo4jOptions configures a Neo4j exporter.
type Neo4jOptions struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Neo4j merges the graph into a Neo4j database as (:Course) nodes joined by
// [:PREREQUISITE_OF] relationships.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

// NewNeo4j connects and verifies connectivity.
func NewNeo4j(ctx context.Context, opts Neo4jOptions) (*Neo4j, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("export: neo4j uri is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = opts.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("export: neo4j driver: %w", err)
	}
	vctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("export: neo4j verify connectivity: %w", err)
	}
	return &Neo4j{driver: driver, database: opts.Database, log: opts.Logger}, nil
}

func (*Neo4j) Type() string { return "neo4j" }

// Close releases the driver.
func (n *Neo4j) Close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

func (n *Neo4j) Export(ctx context.Context, g *graph.Graph, w io.Writer) error {
	nodes, rels := rows(g.Courses())

	session := n.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT course_code_unique IF NOT EXISTS FOR (c:Course) REQUIRE c.code IS UNIQUE`, nil); err != nil {
		n.log.Warn("neo4j schema init failed (continuing)", "err", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (c:Course {code: n.code})
SET c += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (p:Course {code: r.from})
MATCH (c:Course {code: r.to})
MERGE (p)-[:PREREQUISITE_OF]->(c)
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("export: neo4j write: %w", err)
	}
	_, err = fmt.Fprintf(w, "neo4j: merged %d courses and %d prerequisite edges\n", len(nodes), len(rels))
	return err
}

// rows flattens courses into UNWIND parameters. Relationships point from
// the prerequisite to the course that recommends it.
func rows(courses []*course.Course) (nodes, rels []map[string]any) {
	nodes = make([]map[string]any, 0, len(courses))
	for _, c := range courses {
		nodes = append(nodes, map[string]any{
			"code":    c.Code,
			"name":    c.Name,
			"url":     c.URL,
			"level":   int64(c.Level),
			"credits": int64(c.Credits()),
		})
		for _, p := range c.PrerequisiteCodes() {
			rels = append(rels, map[string]any{"from": p, "to": c.Code})
		}
	}
	return nodes, rels
}
