// ABOUTME: Pipeline graph generation with GraphViz
// ABOUTME: Renders the lead funnel as DOT with per-stage counts
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/models"
)

type GraphGenerator struct {
	db *sql.DB
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database}
}

var stageColors = map[string]string{
	models.StageNewLead:   "lightblue",
	models.StageContacted: "lightcyan",
	models.StageQuote:     "lightyellow",
	models.StageFollowUp:  "wheat",
	models.StageSold:      "lightgreen",
	models.StageLost:      "lightgray",
}

// GeneratePipelineGraph draws one node per stage in funnel order. LOST hangs
// off FOLLOW_UP rather than continuing the chain.
func (g *GraphGenerator) GeneratePipelineGraph() (string, error) {
	counts, err := db.CountContactsByStage(g.db)
	if err != nil {
		return "", fmt.Errorf("failed to count contacts by stage: %w", err)
	}

	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node, len(models.Stages))
	for _, stage := range models.Stages {
		node, err := graph.CreateNodeByName(stage)
		if err != nil {
			return "", fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d", stage, counts[stage]))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(stageColors[stage])
		nodes[stage] = node
	}

	edges := [][2]string{
		{models.StageNewLead, models.StageContacted},
		{models.StageContacted, models.StageQuote},
		{models.StageQuote, models.StageFollowUp},
		{models.StageFollowUp, models.StageSold},
		{models.StageFollowUp, models.StageLost},
	}
	for _, e := range edges {
		edge, err := graph.CreateEdgeByName(e[0]+"_"+e[1], nodes[e[0]], nodes[e[1]])
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		if e[1] == models.StageLost {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
