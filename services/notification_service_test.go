package services

import (
	"strings"
	"testing"

	"editorial-workflow-api/models"
)

func TestApplyTemplatePlaceholders(t *testing.T) {
	data := map[string]string{
		"title":   "On the Shape of Things",
		"referee": "Dr. Example",
	}
	got := applyTemplatePlaceholders("Dear {{referee}}, please review \"{{title}}\" ({{title}}).", data)
	want := "Dear Dr. Example, please review \"On the Shape of Things\" (On the Shape of Things)."
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}

	// unknown placeholders stay verbatim so a broken template is visible
	got = applyTemplatePlaceholders("Hello {{missing}}", data)
	if got != "Hello {{missing}}" {
		t.Errorf("got %q want the placeholder untouched", got)
	}
}

func TestBuildFormalEmailHTMLEscapes(t *testing.T) {
	html := buildFormalEmailHTML("Decision <final>", "A & B", "line one\nline <two>")
	if strings.Contains(html, "<final>") || strings.Contains(html, "<two>") {
		t.Error("markup in subject or body must be escaped")
	}
	if !strings.Contains(html, "A &amp; B") {
		t.Error("recipient name must be escaped into the greeting")
	}
	if !strings.Contains(html, "line one<br />line") {
		t.Error("newlines must render as line breaks")
	}
}

func TestInvitationNeedsAttention(t *testing.T) {
	cases := []struct {
		name string
		inv  models.RefereeInvitation
		want bool
	}{
		{"unanswered", models.RefereeInvitation{}, true},
		{"cancelled", models.RefereeInvitation{Cancelled: true}, false},
		{"declined", models.RefereeInvitation{Accepted: boolPtr(false)}, false},
		{"accepted pending report", models.RefereeInvitation{Accepted: boolPtr(true)}, true},
		{"fulfilled", models.RefereeInvitation{Accepted: boolPtr(true), Fulfilled: true}, false},
	}
	for _, tc := range cases {
		if got := tc.inv.NeedsAttention(); got != tc.want {
			t.Errorf("%s: NeedsAttention() = %v want %v", tc.name, got, tc.want)
		}
	}
}
