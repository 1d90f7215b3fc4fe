package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/star/launchdash/internal/charts"
)

func pieDescription() charts.Description {
	return charts.Description{
		Kind:  charts.KindPie,
		Title: "Launch Outcomes for Site: siteB",
		Slices: []charts.Slice{
			{Key: "1", Label: "Success", Value: 1, Color: charts.ColorSuccess},
			{Key: "0", Label: "Failure", Value: 1, Color: charts.ColorFailure},
		},
	}
}

func scatterDescription() charts.Description {
	return charts.Description{
		Kind:   charts.KindScatter,
		Title:  "Payload vs. Launch Outcome for Site: All Sites (Payload Range: 0kg - 10000kg)",
		XLabel: "Payload Mass (kg)",
		YLabel: "Launch Outcome (1=Success, 0=Failure)",
		XRange: &charts.Range{Min: 0, Max: 10000},
		YRange: &charts.Range{Min: -0.1, Max: 1.1},
		Series: []charts.Series{
			{Name: "boosterX", Color: "#636efa", Points: []charts.Point{{X: 500, Y: 1}, {X: 3000, Y: 1}}},
			{Name: "boosterY", Color: "#ef553b", Points: []charts.Point{{X: 9000, Y: 0}}},
		},
	}
}

func TestRenderSVG(t *testing.T) {
	r := New(0, 0)

	tests := []struct {
		name string
		desc charts.Description
	}{
		{"pie", pieDescription()},
		{"scatter", scatterDescription()},
		{"empty pie", charts.Description{Kind: charts.KindPie, Title: "empty"}},
		{"zero-valued pie", charts.Description{Kind: charts.KindPie, Slices: []charts.Slice{{Label: "siteA", Value: 0}}}},
		{"empty scatter", charts.Description{Kind: charts.KindScatter, XRange: &charts.Range{Min: 1000, Max: 2000}}},
		{"degenerate range", charts.Description{Kind: charts.KindScatter, XRange: &charts.Range{Min: 3000, Max: 3000}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg, err := r.SVG(tt.desc)
			if err != nil {
				t.Fatalf("SVG: %v", err)
			}
			if !strings.Contains(svg, "<svg") {
				t.Errorf("output does not look like SVG: %.80q", svg)
			}
		})
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := New(400, 300).Render(pieDescription(), FormatPNG, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	if err := New(0, 0).Render(charts.Description{Kind: "bar"}, FormatSVG, &buf); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatSVG, false},
		{"svg", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if FormatSVG.ContentType() != "image/svg+xml" || FormatPNG.ContentType() != "image/png" {
		t.Errorf("content types = %q, %q", FormatSVG.ContentType(), FormatPNG.ContentType())
	}
}
