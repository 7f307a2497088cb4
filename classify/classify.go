// Package classify derives the project-type partition key from a prompt.
//
// Classification is a two-stage match: a keyword pass over the prompt text,
// then an optional single model round-trip when the keywords are
// inconclusive. The result is a partition key, so it is always one of a
// small closed set of values.
package classify

import (
	"context"
	"strings"

	"github.com/codeloom-io/loom/model"
)

// Known project types. ProjectUnknown is a valid partition value used when
// neither stage produces a confident answer.
const (
	ProjectReact   = "react"
	ProjectVue     = "vue"
	ProjectSvelte  = "svelte"
	ProjectNode    = "node"
	ProjectStatic  = "static"
	ProjectUnknown = "unknown"
)

// keywordRules map prompt keywords to project types. Order encodes priority:
// framework names win over generic runtime terms, so "react app with npm"
// classifies as react, not node.
var keywordRules = []struct {
	project  string
	keywords []string
}{
	{ProjectReact, []string{"react", "jsx", "next.js", "nextjs", "remix"}},
	{ProjectVue, []string{"vue", "nuxt"}},
	{ProjectSvelte, []string{"svelte", "sveltekit"}},
	{ProjectStatic, []string{"static site", "static page", "landing page", "plain html", "html page", "html and css"}},
	{ProjectNode, []string{"node", "express", "fastify", "npm", "javascript", "typescript"}},
}

// knownProjects validates model answers against the closed value set.
var knownProjects = map[string]bool{
	ProjectReact:  true,
	ProjectVue:    true,
	ProjectSvelte: true,
	ProjectNode:   true,
	ProjectStatic: true,
}

const fallbackPrompt = `Classify the following project request into exactly one of: react, vue, svelte, node, static.
Answer with the single word only.

Request: `

// Classifier resolves a prompt to a project type.
type Classifier struct {
	streamer model.Streamer
}

// New creates a classifier. The streamer is used as a fallback when keyword
// matching is inconclusive; nil disables the fallback.
func New(streamer model.Streamer) *Classifier {
	return &Classifier{streamer: streamer}
}

// Classify returns the project type for a prompt. Never returns an empty
// string or an error: classification failures degrade to ProjectUnknown.
func (c *Classifier) Classify(ctx context.Context, prompt string) string {
	if project, ok := MatchKeywords(prompt); ok {
		return project
	}

	if c.streamer == nil {
		return ProjectUnknown
	}

	answer, err := model.Generate(ctx, c.streamer, fallbackPrompt+prompt)
	if err != nil {
		return ProjectUnknown
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if knownProjects[answer] {
		return answer
	}
	return ProjectUnknown
}

// MatchKeywords runs only the keyword stage. The boolean reports whether any
// rule matched.
func MatchKeywords(prompt string) (string, bool) {
	text := strings.ToLower(prompt)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.project, true
			}
		}
	}
	return "", false
}
