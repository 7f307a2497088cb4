package extract

import "regexp"

// Markup grammar assumed from the model: a root <boltArtifact> tag with a
// title attribute containing zero or more <boltAction> child tags, each with
// a type attribute ("file" or "shell") and, for files, a path attribute.
// Child tag bodies are raw text, not further escaped.

// Declared action types recognized in boltAction tags.
// Any other type is silently dropped (forward compatibility).
const (
	// TypeFile declares a file write; requires a path attribute.
	TypeFile = "file"
	// TypeShell declares a shell command.
	TypeShell = "shell"
)

var (
	// rootOpenPattern matches the container opening tag anywhere in the
	// buffer. Only the title attribute is extracted; other attributes are
	// tolerated in any position.
	rootOpenPattern = regexp.MustCompile(`<boltArtifact\b[^>]*\btitle="([^"]*)"[^>]*>`)

	// actionPattern matches one complete action tag: opening tag, raw text
	// body (including newlines, hence (?s)), and the matching closing tag.
	// Attributes are captured as a blob and picked apart separately so that
	// attribute order does not matter.
	actionPattern = regexp.MustCompile(`(?s)<boltAction\b([^>]*)>(.*?)</boltAction>`)

	// typeAttrPattern and pathAttrPattern extract individual attributes
	// from the captured attribute blob.
	typeAttrPattern = regexp.MustCompile(`\btype="([^"]*)"`)
	pathAttrPattern = regexp.MustCompile(`\bpath="([^"]*)"`)
)

// attrValue returns the first capture of pattern within attrs, or "".
func attrValue(pattern *regexp.Regexp, attrs string) string {
	m := pattern.FindStringSubmatch(attrs)
	if m == nil {
		return ""
	}
	return m[1]
}
