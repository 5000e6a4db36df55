package core

import (
	"testing"

	"pkt.systems/tabshell/schema"
)

func TestPolicyHostilePrefersMostRestrictive(t *testing.T) {
	p := NewPolicy(schema.PolicyConfig{Hostile: []schema.HostRule{
		{Pattern: "example.test", Tier: schema.TierEmbedded},
		{Pattern: "example.test/blocked", Tier: schema.TierStatic},
	}})
	rule, ok := p.Hostile("https://EXAMPLE.test/blocked/page")
	if !ok || rule.Tier != schema.TierStatic {
		t.Fatalf("expected static rule, got %+v ok=%v", rule, ok)
	}
	rule, ok = p.Hostile("https://example.test/other")
	if !ok || rule.Tier != schema.TierEmbedded {
		t.Fatalf("expected embedded rule, got %+v ok=%v", rule, ok)
	}
	if _, ok := p.Hostile("https://elsewhere.test"); ok {
		t.Fatalf("did not expect a match")
	}
}

func TestPolicyGuidanceForcesStatic(t *testing.T) {
	rule := schema.HostRule{Pattern: "x", Tier: schema.TierEmbedded, Guidance: "<p>no</p>"}
	if ruleTier(rule) != schema.TierStatic {
		t.Fatalf("expected guidance rule to force static")
	}
}

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicy(schema.DefaultPolicyConfig())
	cases := []struct {
		url       string
		sensitive bool
	}{
		{"https://example.test", true},
		{"http://chrome.google.com/webstore", true},
		{"http://example.test", false},
		{"zero://settings", false},
	}
	for _, tc := range cases {
		if got := p.Sensitive(tc.url); got != tc.sensitive {
			t.Fatalf("Sensitive(%q) = %v, want %v", tc.url, got, tc.sensitive)
		}
	}
	if !p.TransportFailure("net::ERR_CERT_AUTHORITY_INVALID") {
		t.Fatalf("expected cert failure to be a transport failure")
	}
	if !p.TransportFailure("write EPROTO 1234") {
		t.Fatalf("expected EPROTO to be a transport failure")
	}
	if p.TransportFailure("net::ERR_CONNECTION_REFUSED") {
		t.Fatalf("did not expect connection refused to be a transport failure")
	}
}
