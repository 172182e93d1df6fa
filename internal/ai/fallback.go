package ai

import (
	"fmt"
	"strings"
)

const fallbackProviderName = "fallback"

var riskOrder = []string{"critical", "high", "medium", "low"}

// buildFallback synthesizes an analysis from the raw article fields with no
// external call. It is deterministic for a given request and always
// succeeds, which is what guarantees GenerateAnalysis never fails on
// provider trouble.
func buildFallback(req Request) *Result {
	riskCounts := map[string]int{}
	sources := map[string]bool{}
	var locations []string
	seenLocation := map[string]bool{}

	for _, a := range req.Articles {
		if a.RiskLevel != "" {
			riskCounts[a.RiskLevel]++
		}
		if a.Source != "" {
			sources[a.Source] = true
		}
		if a.Location != "" && !seenLocation[a.Location] {
			seenLocation[a.Location] = true
			locations = append(locations, a.Location)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Automated digest of %d report(s).\n\n", len(req.Articles))

	var riskParts []string
	for _, level := range riskOrder {
		if n := riskCounts[level]; n > 0 {
			riskParts = append(riskParts, fmt.Sprintf("%d %s", n, level))
		}
	}
	if len(riskParts) > 0 {
		fmt.Fprintf(&sb, "Risk assessment: %s.\n", strings.Join(riskParts, ", "))
	}
	if len(locations) > 0 {
		fmt.Fprintf(&sb, "Regions covered: %s.\n", strings.Join(locations, ", "))
	}
	sb.WriteString("\n")

	for _, a := range req.Articles {
		sb.WriteString("- " + a.Title)
		var tags []string
		if a.RiskLevel != "" {
			tags = append(tags, "risk: "+a.RiskLevel)
		}
		if a.Location != "" {
			tags = append(tags, a.Location)
		}
		if a.Source != "" {
			tags = append(tags, a.Source)
		}
		if len(tags) > 0 {
			sb.WriteString(" (" + strings.Join(tags, "; ") + ")")
		}
		sb.WriteString("\n")
	}

	subtitle := fmt.Sprintf("Digest of %d report(s) from %d source(s)", len(req.Articles), len(sources))

	return &Result{
		Title:        fallbackTitle(req.Type),
		Subtitle:     subtitle,
		Content:      sb.String(),
		SourcesCount: len(sources),
	}
}

func fallbackTitle(t AnalysisType) string {
	switch t {
	case AnalysisSituation:
		return "Situation Report"
	case AnalysisTrend:
		return "Trend Overview"
	default:
		return "Intelligence Briefing"
	}
}
