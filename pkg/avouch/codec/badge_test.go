package codec

import "testing"

func TestEscapeBadgeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "assisted", want: "assisted"},
		{name: "spaces become underscores", in: "AI assisted", want: "AI_assisted"},
		{name: "hyphens are doubled", in: "semi-auto", want: "semi--auto"},
		{name: "both rules together", in: "semi-auto build", want: "semi--auto_build"},
		{name: "consecutive hyphens each double", in: "a--b", want: "a----b"},
		{name: "underscores pass through", in: "a_b", want: "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeBadgeText(tt.in); got != tt.want {
				t.Errorf("EscapeBadgeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBadgeURL(t *testing.T) {
	got := BadgeURL(DefaultBadgeTemplate, "AI disclosure", "semi-auto", "orange")
	want := "https://img.shields.io/badge/AI_disclosure-semi--auto-orange"
	if got != want {
		t.Errorf("BadgeURL() = %q, want %q", got, want)
	}
}

func TestBadgeURLCustomTemplate(t *testing.T) {
	got := BadgeURL("https://badges.example/{color}/{label}/{status}.svg", "x y", "ok", "green")
	want := "https://badges.example/green/x_y/ok.svg"
	if got != want {
		t.Errorf("BadgeURL() = %q, want %q", got, want)
	}
}

func TestLinkURL(t *testing.T) {
	got := LinkURL("https://avouch.dev/statement", "v:1;o:co;env:prod")
	want := "https://avouch.dev/statement#v:1;o:co;env:prod"
	if got != want {
		t.Errorf("LinkURL() = %q, want %q", got, want)
	}
}
