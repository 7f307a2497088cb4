package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/codeloom-io/loom/model"
)

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
		wantOK bool
	}{
		{"react app", "Build me a React todo app", ProjectReact, true},
		{"framework beats runtime", "a react app managed with npm", ProjectReact, true},
		{"vue", "scaffold a Vue 3 dashboard", ProjectVue, true},
		{"svelte", "a SvelteKit blog", ProjectSvelte, true},
		{"static", "just a landing page for my bakery", ProjectStatic, true},
		{"node", "an express REST API", ProjectNode, true},
		{"inconclusive", "build something fun", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchKeywords(tt.prompt)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MatchKeywords(%q) = %q, %v, want %q, %v", tt.prompt, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClassifyKeywordStageSkipsModel(t *testing.T) {
	streamer := model.NewStub("vue")
	c := New(streamer)

	if got := c.Classify(context.Background(), "a React counter"); got != ProjectReact {
		t.Errorf("Classify() = %q, want react", got)
	}
	if streamer.Calls != 0 {
		t.Errorf("model consulted %d times despite keyword match", streamer.Calls)
	}
}

func TestClassifyModelFallback(t *testing.T) {
	c := New(model.NewStub("  Vue\n"))
	if got := c.Classify(context.Background(), "build something pretty"); got != ProjectVue {
		t.Errorf("Classify() = %q, want vue (trimmed, lowercased model answer)", got)
	}
}

func TestClassifyUnknownModelAnswer(t *testing.T) {
	c := New(model.NewStub("I think this could be many things."))
	if got := c.Classify(context.Background(), "build something"); got != ProjectUnknown {
		t.Errorf("Classify() = %q, want unknown", got)
	}
}

func TestClassifyModelFailure(t *testing.T) {
	streamer := &model.Stub{
		Err:       &model.TransportError{Provider: "stub", Err: errors.New("down")},
		FailAfter: 0,
	}
	c := New(streamer)
	if got := c.Classify(context.Background(), "build something"); got != ProjectUnknown {
		t.Errorf("Classify() = %q, want unknown on transport failure", got)
	}
}

func TestClassifyWithoutFallback(t *testing.T) {
	c := New(nil)
	if got := c.Classify(context.Background(), "build something"); got != ProjectUnknown {
		t.Errorf("Classify() = %q, want unknown", got)
	}
}
