package table

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_CMB.txt")
	hdr := Header{
		Title:     "EMPairProduction interaction rates",
		FieldInfo: "CMB",
		Revision:  "abc1234",
		Columns:   "log10(E/eV), 1/lambda [1/Mpc]",
	}
	lgE := []float64{14.0, 14.05, 14.1}
	rates := []float64{0, 1.2345678e-3, 4.5e2}

	if err := WriteRate(path, hdr, lgE, rates); err != nil {
		t.Fatal(err)
	}
	gotE, gotR, err := ReadRate(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotE) != 3 {
		t.Fatalf("rows=%d, want 3", len(gotE))
	}
	for i := range lgE {
		if math.Abs(gotE[i]-lgE[i]) > 0.005 {
			t.Errorf("lgE[%d]=%g, want %g", i, gotE[i], lgE[i])
		}
		if rates[i] == 0 && gotR[i] != 0 {
			t.Errorf("rate[%d]=%g, want 0", i, gotR[i])
		}
		if rates[i] != 0 && math.Abs(gotR[i]-rates[i])/rates[i] > 1e-7 {
			t.Errorf("rate[%d]=%g, want %g", i, gotR[i], rates[i])
		}
	}
}

func TestRateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate.txt")
	hdr := Header{Title: "t", FieldInfo: "f", Revision: "r", Columns: "c"}
	if err := WriteRate(path, hdr, []float64{1}, []float64{2}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"# t\n", "# photon field: f\n", "# produced with emrates version: r\n", "# c\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("header missing %q in:\n%s", want, text)
		}
	}

	// Without a revision the provenance line is dropped entirely.
	if err := WriteRate(path, Header{Title: "t"}, []float64{1}, []float64{2}); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "version") {
		t.Error("expected no provenance line for empty revision")
	}
}

func TestWriteRateLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate.txt")
	if err := WriteRate(path, Header{}, []float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestCDFRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdf_CMB.txt")
	lgSKin := []float64{12.1, 12.6, 13.1}
	lgE := []float64{14.0, 15.0}
	rows := [][]float64{
		{0, 1e-5, 2e-5},
		{1e-4, 5e-4, 5.5e-4},
	}
	if err := WriteCDF(path, Header{Title: "cdf"}, lgSKin, lgE, rows); err != nil {
		t.Fatal(err)
	}

	gotS, gotE, gotRows, err := ReadCDF(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotS) != 3 || len(gotE) != 2 || len(gotRows) != 2 {
		t.Fatalf("shape: s=%d e=%d rows=%d", len(gotS), len(gotE), len(gotRows))
	}
	for j := range lgSKin {
		if math.Abs(gotS[j]-lgSKin[j])/lgSKin[j] > 1e-5 {
			t.Errorf("s[%d]=%g, want %g", j, gotS[j], lgSKin[j])
		}
	}
	for i := range rows {
		for j := range rows[i] {
			want := rows[i][j]
			if want == 0 {
				if gotRows[i][j] != 0 {
					t.Errorf("row %d col %d=%g, want 0", i, j, gotRows[i][j])
				}
				continue
			}
			if math.Abs(gotRows[i][j]-want)/want > 1e-5 {
				t.Errorf("row %d col %d=%g, want %g", i, j, gotRows[i][j], want)
			}
		}
	}
}

func TestCDFSentinelRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdf.txt")
	if err := WriteCDF(path, Header{}, []float64{12}, []float64{14}, [][]float64{{1}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "0.00\t") {
		t.Errorf("first row %q does not start with the sentinel column", lines[0])
	}
}

func TestWriteCDFShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdf.txt")
	err := WriteCDF(path, Header{}, []float64{1, 2}, []float64{14}, [][]float64{{1}})
	if err == nil {
		t.Error("expected error for column mismatch")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("partial file left behind after failed write")
	}
}
