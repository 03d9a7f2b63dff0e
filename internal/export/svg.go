package export

import (
	"fmt"
	"os"
	"strings"
)

// TrajectorySVG renders the sampled coordinate against time as an SVG
// polyline, auto-scaled to the data with 10% padding on both axes.
func TrajectorySVG(times, samples []float64, width, height int, strokeColor string) string {
	n := len(times)
	if len(samples) < n {
		n = len(samples)
	}
	if n < 2 {
		return ""
	}

	minT, maxT := times[0], times[n-1]
	minS, maxS := samples[0], samples[0]
	for _, s := range samples[:n] {
		if s < minS {
			minS = s
		}
		if s > maxS {
			maxS = s
		}
	}

	rangeT := maxT - minT
	rangeS := maxS - minS
	if rangeT == 0 {
		rangeT = 1
	}
	if rangeS == 0 {
		rangeS = 1
	}
	minS -= rangeS * 0.1
	maxS += rangeS * 0.1
	rangeS = maxS - minS

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (times[i] - minT) / rangeT * float64(width)
		y := float64(height) - (samples[i]-minS)/rangeS*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteSVG renders the run's trajectory and writes it to path.
func WriteSVG(path string, run *Run, width, height int) error {
	svg := TrajectorySVG(run.Times, run.Samples, width, height, "#00ff88")
	if svg == "" {
		return fmt.Errorf("export: run too short to plot (%d samples)", len(run.Samples))
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
