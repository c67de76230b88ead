package buildinfo

import (
	"testing"

	"github.com/flarebyte/stagetrack/cli"
)

func TestSummary(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	oldCLIVersion, oldCLIDate := cli.Version, cli.Date
	defer func() {
		Version, Commit, Date = oldVersion, oldCommit, oldDate
		cli.Version, cli.Date = oldCLIVersion, oldCLIDate
	}()

	tests := []struct {
		version, commit, date, cliVersion, cliDate string
		want                                       string
	}{
		{"", "", "", "", "", "dev"},
		{"", "", "", "1.2.3", "2026-02-09", "1.2.3 (date=2026-02-09)"},
		{"2.0.0", "0123456789abcdef", "", "", "", "2.0.0 (commit=0123456)"},
	}
	for _, tt := range tests {
		Version, Commit, Date = tt.version, tt.commit, tt.date
		cli.Version, cli.Date = tt.cliVersion, tt.cliDate
		if got := Summary(); got != tt.want {
			t.Fatalf("want %q, got %q", tt.want, got)
		}
	}
}

func TestCurrent_Fallbacks(t *testing.T) {
	oldVersion, oldDate, oldCLIDate := Version, Date, cli.Date
	defer func() { Version, Date, cli.Date = oldVersion, oldDate, oldCLIDate }()

	Version, Date, cli.Date = "3.1.0", "", "2026-10-01"
	i := Current()
	if i.Version != "3.1.0" || i.Date != "2026-10-01" {
		t.Fatalf("unexpected info: %+v", i)
	}
	if (Info{Commit: "abc"}).ShortCommit() != "abc" {
		t.Fatalf("short commits must be kept")
	}
}
