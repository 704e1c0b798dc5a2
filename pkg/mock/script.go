package mock

import (
	"fmt"
	"strings"
)

// Canned responses. The leading status lines mirror what the real service
// sends before the model output starts.

func analyzeScript(file upload, prompt string, methodologies, custom []string) string {
	var b strings.Builder
	b.WriteString("🔄 Parsing document, please wait...\n\n")
	fmt.Fprintf(&b, "# Blueprint review: %s\n\n", file.name)
	fmt.Fprintf(&b, "Received %d bytes of source material.\n\n", file.size)
	writeMethodologies(&b, methodologies, custom)
	if prompt != "" {
		fmt.Fprintf(&b, "## Reviewer focus\n\n> %s\n\n", prompt)
	}
	b.WriteString("## Findings\n\n")
	b.WriteString("1. **Strategic fit** – the goals are stated but not yet tied to measurable outcomes.\n")
	b.WriteString("2. **Capability gaps** – delivery depends on two teams that have no shared roadmap.\n")
	b.WriteString("3. **Risks** – budget assumptions are not stress-tested against a slower rollout.\n\n")
	b.WriteString("## Recommendations\n\n")
	b.WriteString("- Define one north-star metric per objective.\n")
	b.WriteString("- Add a dependency map between workstreams.\n")
	b.WriteString("- Plan a staged rollout with explicit exit criteria.\n")
	return b.String()
}

func analyzeMindmapScript(file upload) string {
	var b strings.Builder
	b.WriteString("# 🚀 Parsing blueprint structure...\n")
	b.WriteString("\n# 🧠 Building diagnosis mind map...\n")
	fmt.Fprintf(&b, "# %s\n", file.name)
	b.WriteString("## Strengths\n### Clear vision\n### Executive sponsorship\n")
	b.WriteString("## Weaknesses\n### No success metrics\n### Unowned dependencies\n")
	b.WriteString("## Actions\n### Add KPIs\n### Assign owners\n")
	return b.String()
}

func smartMindmapScript(file upload) string {
	var b strings.Builder
	b.WriteString("# 🚀 Reading document...\n")
	b.WriteString("\n# 💡 Building mind map...\n")
	fmt.Fprintf(&b, "# %s\n", file.name)
	b.WriteString("## Background\n## Objectives\n### Growth\n### Efficiency\n## Roadmap\n### Phase 1\n### Phase 2\n")
	return b.String()
}

func generateMindmapScript(content string) string {
	var b strings.Builder
	b.WriteString("# Report overview\n")
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			fmt.Fprintf(&b, "#%s\n", line)
		}
	}
	return b.String()
}

func proposalScript(needs, ideas string, methodologies, custom []string, ref *upload) string {
	var b strings.Builder
	b.WriteString("🔄 Preparing proposal model, please wait...\n\n")
	if ref != nil {
		b.WriteString("📎 Parsing reference material, please wait...\n\n")
	}
	b.WriteString("# Proposal\n\n")
	fmt.Fprintf(&b, "## Client needs\n\n%s\n\n", needs)
	if ideas != "" {
		fmt.Fprintf(&b, "## Initial ideas\n\n%s\n\n", ideas)
	}
	if ref != nil {
		fmt.Fprintf(&b, "## Reference\n\nBuilt on %s (%d bytes).\n\n", ref.name, ref.size)
	}
	writeMethodologies(&b, methodologies, custom)
	b.WriteString("## Plan\n\n1. Discovery\n2. Design\n3. Pilot\n4. Scale\n")
	return b.String()
}

func subProposalScript(parent upload, title, details string, methodologies, custom []string) string {
	var b strings.Builder
	b.WriteString("🔄 Parsing parent proposal, please wait...\n\n")
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Derived from %s.\n\n", parent.name)
	if details != "" {
		fmt.Fprintf(&b, "## Scope\n\n%s\n\n", details)
	}
	writeMethodologies(&b, methodologies, custom)
	b.WriteString("## Milestones\n\n- Kick-off\n- First deliverable\n- Review\n")
	return b.String()
}

func writeMethodologies(b *strings.Builder, methodologies, custom []string) {
	if len(methodologies) == 0 && len(custom) == 0 {
		return
	}
	b.WriteString("## Methodologies\n\n")
	for _, m := range methodologies {
		fmt.Fprintf(b, "- %s\n", m)
	}
	for _, m := range custom {
		fmt.Fprintf(b, "- %s (custom)\n", m)
	}
	b.WriteString("\n")
}

// splitRunes cuts s into pieces of at most size runes.
func splitRunes(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	var chunks []string
	runes := 0
	start := 0
	for i := range s {
		if runes == size {
			chunks = append(chunks, s[start:i])
			start = i
			runes = 0
		}
		runes++
	}
	if start < len(s) {
		chunks = append(chunks, s[start:])
	}
	return chunks
}
