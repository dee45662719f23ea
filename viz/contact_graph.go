// ABOUTME: Graphviz rendering of a lead and its related records
// ABOUTME: Links a contact to its tasks and its latest discovery session
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/models"
)

// GenerateLeadGraph shows one lead with its tasks and discovery sessions.
func (g *GraphGenerator) GenerateLeadGraph(contactID uuid.UUID) (string, error) {
	contact, err := db.GetContact(g.db, contactID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return "", fmt.Errorf("contact not found: %s", contactID)
	}

	tasks, err := db.FindTasks(g.db, models.TaskFilter{ContactID: &contactID, ShowArchived: true}, 100)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tasks: %w", err)
	}

	session, err := db.NewDiscoveryStore(g.db, "").GetByClientID(context.Background(), contactID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch discovery session: %w", err)
	}

	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)

	lead, err := graph.CreateNodeByName("lead")
	if err != nil {
		return "", fmt.Errorf("failed to create lead node: %w", err)
	}
	lead.SetLabel(fmt.Sprintf("%s\n%s", contact.FullName(), contact.Stage))
	lead.SetShape("ellipse")
	lead.SetStyle("filled")
	lead.SetFillColor(stageColors[contact.Stage])

	for _, task := range tasks {
		node, err := graph.CreateNodeByName("task_" + task.ID.String()[:8])
		if err != nil {
			return "", fmt.Errorf("failed to create task node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", task.Title, task.Status))
		node.SetShape("box")
		if task.Status == models.TaskDone {
			node.SetStyle("dashed")
		}
		_, _ = graph.CreateEdgeByName("task", lead, node)
	}

	if session != nil {
		node, err := graph.CreateNodeByName("session_" + session.SessionID)
		if err != nil {
			return "", fmt.Errorf("failed to create session node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("Discovery %s\n%d rapport notes", session.SessionID, len(session.Rapport)))
		node.SetShape("diamond")
		edge, _ := graph.CreateEdgeByName("discovery", lead, node)
		if edge != nil {
			edge.SetStyle("dotted")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
