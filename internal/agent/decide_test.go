package agent

import (
	"context"
	"errors"
	"testing"
)

func TestParseShouldRespond(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"RESPOND", true},
		{"respond", true},
		{" RESPOND\n", true},
		{"IGNORE", false},
		{"STOP", false},
		{"IGNORE (do not RESPOND)", false},
		{"I think the answer is RESPOND", true},
		{"maybe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			if got := parseShouldRespond(tt.answer); got != tt.want {
				t.Errorf("parseShouldRespond(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestShouldRespond(t *testing.T) {
	p := &fakeProvider{decision: "RESPOND"}
	state := &State{AgentName: "Botty", AgentUsername: "botty"}

	got, err := ShouldRespond(context.Background(), p, "decider", state)
	if err != nil {
		t.Fatalf("ShouldRespond failed: %v", err)
	}
	if !got {
		t.Error("want respond=true")
	}
}

func TestShouldRespond_ErrorPropagates(t *testing.T) {
	p := &fakeProvider{decisionErr: errors.New("timeout")}
	state := &State{AgentName: "Botty"}

	_, err := ShouldRespond(context.Background(), p, "decider", state)
	if err == nil {
		t.Fatal("expected error from failed decision call")
	}
}
