package clients

import "testing"

func TestParseWpctlVolume(t *testing.T) {
	cases := []struct {
		in   string
		want AudioState
	}{
		{"Volume: 0.55\n", AudioState{Volume: 55}},
		{"Volume: 1.00\n", AudioState{Volume: 100}},
		{"Volume: 0.00 [MUTED]\n", AudioState{Volume: 0, Muted: true}},
		{"Volume: 0.33 [MUTED]\n", AudioState{Volume: 33, Muted: true}},
	}
	for _, c := range cases {
		got, err := parseWpctlVolume(c.in)
		if err != nil {
			t.Fatalf("parseWpctlVolume(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseWpctlVolume(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}

	if _, err := parseWpctlVolume("no volume here"); err == nil {
		t.Error("expected error for unparseable output")
	}
}

func TestParseUPowerInfo(t *testing.T) {
	out := `
  native-path:          BAT0
  battery
    state:               discharging
    percentage:          73%
    time to empty:       3.2 hours
`
	percent, charging, err := parseUPowerInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if percent != 73 || charging {
		t.Fatalf("got percent=%d charging=%v", percent, charging)
	}

	out = `
    state:               charging
    percentage:          9%
`
	percent, charging, err = parseUPowerInfo(out)
	if err != nil {
		t.Fatal(err)
	}
	if percent != 9 || !charging {
		t.Fatalf("got percent=%d charging=%v", percent, charging)
	}
}
