package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"depmap/internal/cache"
	"depmap/internal/depgraph"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// FormatOutput renders a response according to the selected format
func FormatOutput(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *depgraph.Graph:
		return formatGraphHuman(v), nil
	case cache.ManagerStats:
		return formatStatsHuman(v), nil
	default:
		// Unknown types fall back to JSON
		return FormatOutput(resp, FormatJSON)
	}
}

func formatGraphHuman(g *depgraph.Graph) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Dependency graph: %d nodes, %d links (%d cross-repository)\n",
		g.Metadata.NodeCount, g.Metadata.LinkCount, g.Metadata.CrossRepositoryLinkCount))
	if g.Metadata.Truncated {
		b.WriteString("  ! graph truncated (budget, time, or upstream failures)\n")
	}
	if g.Metadata.UnresolvedReferenceCount > 0 {
		b.WriteString(fmt.Sprintf("  %d references did not resolve in the searched repositories\n",
			g.Metadata.UnresolvedReferenceCount))
	}
	b.WriteString(fmt.Sprintf("  completed in %dms\n\n", g.Metadata.DurationMs))

	if len(g.Nodes) > 0 {
		b.WriteString("Nodes:\n")
		for _, n := range g.Nodes {
			b.WriteString(fmt.Sprintf("  %s (%s)\n", n.ID, n.Kind))
		}
		b.WriteString("\n")
	}

	if len(g.Links) > 0 {
		b.WriteString("Links:\n")
		for _, l := range g.Links {
			marker := ""
			if l.CrossRepository {
				marker = "  [cross-repo]"
			}
			b.WriteString(fmt.Sprintf("  %s --%s--> %s%s\n", l.SourceID, l.Relation, l.TargetID, marker))
		}
	}

	return b.String()
}

func formatStatsHuman(s cache.ManagerStats) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cache: %d entries (%d active, %d expired)\n",
		s.CombinedTotal, s.CombinedActive, s.CombinedExpired))

	categories := make([]string, 0, len(s.PerCategory))
	for c := range s.PerCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		st := s.PerCategory[c]
		b.WriteString(fmt.Sprintf("  %-18s %d active, %d expired\n", c, st.Active, st.Expired))
	}

	return b.String()
}

func printOutput(resp interface{}) error {
	out, err := FormatOutput(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
