package i18n

import (
	"errors"
	"testing"
	"time"
)

func TestLoadCatalog_AllLocales(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog("cs")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	codes := c.Codes()
	if len(codes) != 3 || codes[0] != "cs" || codes[1] != "hu" || codes[2] != "sk" {
		t.Fatalf("unexpected codes: %v", codes)
	}
	for _, code := range codes {
		loc, err := c.Locale(code)
		if err != nil {
			t.Fatalf("Locale(%s): %v", code, err)
		}
		if len(loc.Months) != 12 {
			t.Fatalf("%s months=%d", code, len(loc.Months))
		}
		for _, key := range []string{"exportTitle", "periodLabel", "filePrefix", "headerNotFound"} {
			if loc.T(key) == key {
				t.Fatalf("%s missing string %q", code, key)
			}
		}
	}
}

func TestLoadCatalog_UnknownDefault(t *testing.T) {
	t.Parallel()

	if _, err := LoadCatalog("de"); !errors.Is(err, ErrUnknownLocale) {
		t.Fatalf("want ErrUnknownLocale, got %v", err)
	}
}

func TestLocale_FormatPeriod(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog("cs")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	cases := map[string]string{
		"cs": "září 2025",
		"sk": "september 2025",
		"hu": "2025. szeptember",
	}
	for code, want := range cases {
		loc, _ := c.Locale(code)
		if got := loc.FormatPeriod(time.September, 2025); got != want {
			t.Fatalf("%s: got %q want %q", code, got, want)
		}
	}
}

func TestCatalog_Match(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog("cs")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got := c.Match("hu-HU,hu;q=0.9,en;q=0.8").Code; got != "hu" {
		t.Fatalf("hu header matched %s", got)
	}
	if got := c.Match("sk").Code; got != "sk" {
		t.Fatalf("sk header matched %s", got)
	}
	if got := c.Match("").Code; got != "cs" {
		t.Fatalf("empty header matched %s", got)
	}
	if got := c.Match("ja-JP").Code; got != "cs" {
		t.Fatalf("unsupported header matched %s", got)
	}
}
