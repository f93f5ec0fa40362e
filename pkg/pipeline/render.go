package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/kagome/pkg/strand"
)

// pngScale is the rsvg-convert zoom for PNG output.
const pngScale = 2.0

// Render produces strand graph artifacts in the given formats. The SVG is
// rendered at most once and reused for PDF and PNG.
func Render(ctx context.Context, g *strand.Graph, opts strand.Options, formats []string) (map[string][]byte, error) {
	dot := strand.ToDOT(g, opts)
	artifacts := make(map[string][]byte, len(formats))

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = strand.RenderSVG(ctx, dot)
		return svg, err
	}

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(g, "", "  ")
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = strand.ToPDF(ctx, data)
			}
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = strand.ToPNG(ctx, data, pngScale)
			}
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
