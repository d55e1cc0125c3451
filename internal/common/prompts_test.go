package common

import (
	"strings"
	"testing"
)

func TestBuildEditPrompt(t *testing.T) {
	got := BuildEditPrompt("  make the sky pink \n")

	if !strings.HasPrefix(got, EditSystemFraming) {
		t.Fatalf("prompt should start with framing, got %q", got)
	}
	if !strings.Contains(got, "TASK: make the sky pink\n") {
		t.Fatalf("prompt should carry the literal instruction, got %q", got)
	}
	if !strings.HasSuffix(got, EditRules) {
		t.Fatalf("prompt should end with the rule set, got %q", got)
	}
}

func TestBuildEditPromptKeepsInnerText(t *testing.T) {
	instr := "Change the background to a beach; keep the dog"
	if got := BuildEditPrompt(instr); !strings.Contains(got, instr) {
		t.Fatalf("instruction altered: %q", got)
	}
}
