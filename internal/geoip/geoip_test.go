package geoip

import "testing"

func TestLookupCountry_Disabled(t *testing.T) {
	g := NewLookup()

	// Not initialized yet
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("LookupCountry before Init = %q, want empty", got)
	}

	// Initialized without a database path: private IPs still resolve
	if err := g.Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true without database")
	}
	if got := g.LookupCountry("192.168.1.10"); got != "LOCAL" {
		t.Errorf("LookupCountry(private) = %q, want LOCAL", got)
	}
	if got := g.LookupCountry("127.0.0.1"); got != "LOCAL" {
		t.Errorf("LookupCountry(loopback) = %q, want LOCAL", got)
	}
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("LookupCountry(public) without database = %q, want empty", got)
	}
	if got := g.LookupCountry("not-an-ip"); got != "" {
		t.Errorf("LookupCountry(invalid) = %q, want empty", got)
	}
}

func TestInit_MissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("Init should fail for a missing database file")
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true after failed Init")
	}
}

func TestCountryName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"IN", "India"},
		{"LOCAL", "Local Network"},
		{"", "Unknown"},
		{"XX", "XX"},
	}

	for _, tt := range tests {
		if got := CountryName(tt.code); got != tt.want {
			t.Errorf("CountryName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
