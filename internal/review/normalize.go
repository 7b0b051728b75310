package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/rev/internal/models"
)

// Normalize turns a loosely-typed reviewer payload into a fully-populated
// ReviewResult. Reviewers may omit optional sub-objects, so every field gets
// a structural default, and the summary counts are always recomputed here —
// an externally supplied summary is never trusted.
func Normalize(payload map[string]any) *models.ReviewResult {
	r := &models.ReviewResult{
		Timestamp: time.Now().UTC(),
		DesignCompliance: models.DesignCompliance{
			FollowsArchitecture: true,
			MajorViolations:     []models.Violation{},
		},
		Comments:            []models.Comment{},
		MissingRequirements: []string{},
		OverallAssessment:   models.AssessmentNeedsChanges,
	}

	if dc, ok := payload["design_compliance"].(map[string]any); ok {
		if follows, ok := dc["follows_architecture"].(bool); ok {
			r.DesignCompliance.FollowsArchitecture = follows
		}
		for _, item := range asSlice(dc["major_violations"]) {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			r.DesignCompliance.MajorViolations = append(r.DesignCompliance.MajorViolations, models.Violation{
				Description: asString(m["description"]),
				Severity:    asSeverity(m["severity"], models.SeverityMajor),
			})
		}
	}

	for _, item := range asSlice(payload["comments"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := models.Comment{
			Type:       models.CommentTypeGeneral,
			Severity:   asSeverity(m["severity"], models.SeverityMinor),
			Category:   asString(m["category"]),
			File:       asString(m["file"]),
			Line:       int(asFloat(m["line"])),
			Comment:    asString(m["comment"]),
			Suggestion: asString(m["suggestion"]),
		}
		if asString(m["type"]) == string(models.CommentTypeSpecific) {
			c.Type = models.CommentTypeSpecific
		}
		r.Comments = append(r.Comments, c)
	}

	for _, item := range asSlice(payload["missing_requirements"]) {
		if s, ok := item.(string); ok {
			r.MissingRequirements = append(r.MissingRequirements, s)
		}
	}

	if tr, ok := payload["test_results"].(map[string]any); ok {
		r.TestResults.Summary = asString(tr["summary"])
		if passed, ok := tr["passed"].(bool); ok {
			r.TestResults.Passed = &passed
		}
		for _, item := range asSlice(tr["failed_tests"]) {
			if s, ok := item.(string); ok {
				r.TestResults.FailedTests = append(r.TestResults.FailedTests, s)
			}
		}
		r.TestResults.Coverage = asFloat(tr["coverage"])
	} else {
		passed := true
		r.TestResults = models.TestResults{Passed: &passed, Summary: "No tests run"}
	}

	if a := asString(payload["overall_assessment"]); a != "" {
		r.OverallAssessment = models.Assessment(a)
	}

	r.Status = models.StatusForAssessment(r.OverallAssessment)
	r.Summary = computeSummary(r)
	return r
}

// ParseFailure produces the synthetic diagnostic result used when extraction
// fails outright. The pipeline always yields a structurally valid result;
// a parse failure surfaces in history as a normal needs_changes round.
func ParseFailure(reason, raw string) *models.ReviewResult {
	passed := false
	r := &models.ReviewResult{
		Timestamp: time.Now().UTC(),
		Status:    models.ReviewStatusNeedsChanges,
		DesignCompliance: models.DesignCompliance{
			FollowsArchitecture: false,
			MajorViolations: []models.Violation{
				{
					Description: fmt.Sprintf("failed to parse reviewer response: %s", reason),
					Severity:    models.SeverityMajor,
				},
			},
		},
		Comments: []models.Comment{
			{
				Type:     models.CommentTypeGeneral,
				Severity: models.SeverityMajor,
				Category: "process",
				Comment: fmt.Sprintf("The reviewer response could not be parsed as a structured review. "+
					"Inspect the raw output below and re-run the review.\n\n%s", excerpt(raw, 2000)),
			},
		},
		MissingRequirements: []string{},
		TestResults:         models.TestResults{Passed: &passed, Summary: "Review response parsing failed"},
		OverallAssessment:   models.AssessmentNeedsChanges,
	}
	r.Summary = computeSummary(r)
	return r
}

// computeSummary derives counts from the comments and violations. Same
// computation regardless of payload origin.
func computeSummary(r *models.ReviewResult) models.Summary {
	s := models.Summary{Violations: len(r.DesignCompliance.MajorViolations)}
	for _, c := range r.Comments {
		switch c.Severity {
		case models.SeverityCritical:
			s.Critical++
		case models.SeverityMajor:
			s.Major++
		case models.SeverityMinor:
			s.Minor++
		case models.SeveritySuggestion:
			s.Suggestions++
		}
	}
	return s
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asSeverity(v any, fallback models.Severity) models.Severity {
	switch models.Severity(strings.ToLower(asString(v))) {
	case models.SeverityCritical:
		return models.SeverityCritical
	case models.SeverityMajor:
		return models.SeverityMajor
	case models.SeverityMinor:
		return models.SeverityMinor
	case models.SeveritySuggestion:
		return models.SeveritySuggestion
	default:
		return fallback
	}
}
