// Package extract implements the incremental structured-output extractor.
//
// The extractor consumes a model response as text fragments of arbitrary
// size and alignment, and emits a monotonically growing, de-duplicated
// sequence of build actions. Tags split across chunk boundaries are resolved
// by keeping the full raw buffer and re-scanning it on every call; matches
// already reported are skipped by count. The buffer is never pruned: one
// turn's output is bounded by the model's maximum output size.
//
// The extractor has no fatal error path: malformed markup degrades to fewer
// extracted actions, never to an error.
package extract

import (
	"strings"

	"github.com/codeloom-io/loom/types"
)

// Extractor maintains parse state across Feed calls for one turn.
//
// Not safe for concurrent use; the owning turn context is the single writer.
// Feed never blocks. All I/O lives in the transport and the sinks.
type Extractor struct {
	// buf is the full concatenation of all text received so far.
	buf strings.Builder
	// rootSeen is true once the container opening tag has been matched.
	rootSeen bool
	// matched counts complete action-tag matches already examined,
	// including matches with unknown types that emitted nothing. Re-scans
	// skip this many matches from the start of the buffer.
	matched int
	// skipped counts matches dropped for an unknown or missing type.
	skipped int
	// nextSeq is the next sequence ID to assign at emission.
	nextSeq int64
	// root is the synthesized container action, for the finalize status flip.
	root *types.Action
	// actions holds every emitted action in sequence order.
	actions []*types.Action
	// finalized is set by Finalize; later calls are no-ops.
	finalized bool
}

// New creates an extractor for a single turn.
func New() *Extractor {
	return &Extractor{nextSeq: 1}
}

// Feed appends a text fragment and returns the newly discovered actions, in
// order of appearance. The fragment may be empty and carries no alignment
// guarantees: it may begin or end in the middle of a tag, an attribute, or
// a multi-byte rune boundary already normalized upstream.
func (e *Extractor) Feed(chunk string) []*types.Action {
	e.buf.WriteString(chunk)
	return e.scan()
}

// Finalize re-scans the final buffer state, marks the container action
// completed, and returns any residual newly discovered actions. Actions
// whose closing tag never arrived are dropped silently. Finalize without a
// prior Feed, or called twice, is a no-op returning nil.
func (e *Extractor) Finalize() []*types.Action {
	if e.finalized {
		return nil
	}
	e.finalized = true

	found := e.scan()
	if e.root != nil {
		e.root.Status = types.StatusCompleted
	}
	return found
}

// Actions returns all actions emitted so far, in sequence order.
// The returned slice is shared; callers must not mutate it.
func (e *Extractor) Actions() []*types.Action {
	return e.actions
}

// Root returns the synthesized container action, if the root marker has
// been seen.
func (e *Extractor) Root() (*types.Action, bool) {
	return e.root, e.root != nil
}

// Buffered returns the number of raw bytes accumulated.
func (e *Extractor) Buffered() int {
	return e.buf.Len()
}

// Skipped returns the number of complete action tags dropped for carrying
// an unknown or missing type.
func (e *Extractor) Skipped() int {
	return e.skipped
}

// scan runs the root-marker match and the full action re-scan against the
// current buffer, returning newly emitted actions.
func (e *Extractor) scan() []*types.Action {
	text := e.buf.String()
	var found []*types.Action

	// The root marker is matched at most once per turn; duplicate container
	// tags after the first are ignored.
	if !e.rootSeen {
		if m := rootOpenPattern.FindStringSubmatch(text); m != nil {
			e.rootSeen = true
			e.root = e.emit(&types.Action{
				Kind:   types.ActionCreateContainer,
				Title:  m[1],
				Status: types.StatusInProgress,
			})
			found = append(found, e.root)
		}
	}

	// Re-scan the whole buffer for complete action tags. Every previously
	// found match is found again in the same order, so skipping the first
	// e.matched matches yields exactly the new ones.
	matches := actionPattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches[min(e.matched, len(matches)):] {
		e.matched++

		attrs, body := m[1], m[2]
		switch attrValue(typeAttrPattern, attrs) {
		case TypeFile:
			path := attrValue(pathAttrPattern, attrs)
			action := e.emit(&types.Action{
				Kind:    types.ActionWriteFile,
				Title:   path,
				Path:    path,
				Content: strings.TrimSpace(body),
				Status:  types.StatusPending,
			})
			found = append(found, action)

		case TypeShell:
			content := strings.TrimSpace(body)
			action := e.emit(&types.Action{
				Kind:    types.ActionRunCommand,
				Title:   content,
				Content: content,
				Status:  types.StatusPending,
			})
			found = append(found, action)

		default:
			// Unknown or missing type: dropped, but still counted so the
			// skip-by-count re-scan stays aligned.
			e.skipped++
		}
	}

	return found
}

// emit assigns the next sequence ID and records the action.
func (e *Extractor) emit(action *types.Action) *types.Action {
	action.SequenceID = e.nextSeq
	e.nextSeq++
	e.actions = append(e.actions, action)
	return action
}
