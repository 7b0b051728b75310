package review

import (
	"fmt"
	"os"
	"strings"

	"github.com/joescharf/rev/internal/models"
)

// SystemPrompt is the instruction block appended to the reviewer's system
// prompt. It pins the output contract: a single JSON object in the shape the
// normalizer expects.
func SystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are a rigorous code reviewer. Review the provided change set and respond with a single JSON object and nothing else.\n\n")

	b.WriteString("## Output Format\n\n")
	b.WriteString("Respond with JSON matching this shape:\n\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"design_compliance\": {\n")
	b.WriteString("    \"follows_architecture\": true,\n")
	b.WriteString("    \"major_violations\": [{\"description\": \"...\", \"severity\": \"major\"}]\n")
	b.WriteString("  },\n")
	b.WriteString("  \"comments\": [\n")
	b.WriteString("    {\"type\": \"specific\", \"severity\": \"critical\", \"category\": \"correctness\", \"file\": \"path/to/file.go\", \"line\": 42, \"comment\": \"...\", \"suggestion\": \"...\"},\n")
	b.WriteString("    {\"type\": \"general\", \"severity\": \"suggestion\", \"comment\": \"...\"}\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"missing_requirements\": [\"...\"],\n")
	b.WriteString("  \"test_results\": {\"passed\": true, \"summary\": \"...\", \"failed_tests\": [], \"coverage\": 0},\n")
	b.WriteString("  \"overall_assessment\": \"needs_changes\"\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	b.WriteString("## Rules\n\n")
	b.WriteString("- `severity` is one of: critical, major, minor, suggestion\n")
	b.WriteString("- `type` is \"specific\" for line-level comments (with file and line) or \"general\"\n")
	b.WriteString("- `overall_assessment` is one of: needs_changes, lgtm_with_suggestions, lgtm\n")
	b.WriteString("- Use \"lgtm\" only when the change is ready to merge as-is\n")
	b.WriteString("- Omit `test_results` if you did not run the tests\n")
	b.WriteString("- Do not wrap the JSON in prose; a markdown ```json fence is acceptable\n")

	return b.String()
}

// BuildReviewPrompt generates the user-facing prompt: the request context,
// prior rounds for a continued session, and the diff itself.
func BuildReviewPrompt(req models.ReviewRequest, diff string, prior []models.ReviewResult) string {
	var b strings.Builder

	b.WriteString("## Change Summary\n\n")
	b.WriteString(req.Summary)
	b.WriteString("\n\n")

	if len(req.Focus) > 0 {
		b.WriteString("## Focus Areas\n\n")
		for _, f := range req.Focus {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(req.Docs) > 0 {
		b.WriteString("## Reference Documents\n\n")
		b.WriteString("Judge design compliance against these:\n\n")
		for _, d := range req.Docs {
			// Inline content when readable; the API backend has no way to
			// read files itself.
			if data, err := os.ReadFile(d); err == nil {
				fmt.Fprintf(&b, "### %s\n\n%s\n\n", d, strings.TrimSpace(string(data)))
			} else {
				fmt.Fprintf(&b, "### %s\n\n(unreadable: %v)\n\n", d, err)
			}
		}
	}

	if req.TestCommand != "" {
		fmt.Fprintf(&b, "## Tests\n\nRun the test suite with `%s` and report the outcome in test_results.\n\n", req.TestCommand)
	}

	if len(prior) > 0 {
		fmt.Fprintf(&b, "## Prior Rounds\n\nThis is round %d of an ongoing review. Verify earlier findings were addressed:\n\n", len(prior)+1)
		for _, r := range prior {
			fmt.Fprintf(&b, "### Round %d — %s\n", r.Round, r.OverallAssessment)
			for _, v := range r.DesignCompliance.MajorViolations {
				fmt.Fprintf(&b, "- [violation/%s] %s\n", v.Severity, v.Description)
			}
			for _, c := range r.Comments {
				if c.Severity == models.SeverityCritical || c.Severity == models.SeverityMajor {
					loc := ""
					if c.File != "" {
						loc = fmt.Sprintf(" (%s:%d)", c.File, c.Line)
					}
					fmt.Fprintf(&b, "- [%s]%s %s\n", c.Severity, loc, c.Comment)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Diff\n\n")
	b.WriteString("```diff\n")
	b.WriteString(diff)
	if !strings.HasSuffix(diff, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	return b.String()
}
