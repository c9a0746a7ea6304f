// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 16
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var plotPalette = []string{
	"\x1b[32m", // green
	"\x1b[34m", // blue
	"\x1b[31m", // red
	"\x1b[35m", // magenta
	"\x1b[36m", // cyan
}

// Plot renders a multi-series braille chart. All series share one y axis
// labelled in milliseconds; consecutive points within a series are
// connected.
func Plot(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmptySeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	minX, maxX, minY, maxY := plotBounds(series)
	if maxX == minX {
		maxX = minX + 1
	}
	if math.Abs(maxY-minY) < 1e-9 {
		minY--
		maxY++
	}

	dotsX := width * 2
	dotsY := height * 4
	cells := make([][]uint8, height)
	colors := make([][]int, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
		colors[y] = make([]int, width)
		for x := range colors[y] {
			colors[y][x] = -1
		}
	}

	for si, s := range series {
		prevX, prevY := -1, -1
		for _, p := range s.Points {
			px := int(math.Round(float64(p.X-minX) / float64(maxX-minX) * float64(dotsX-1)))
			py := int(math.Round((1 - (p.Y-minY)/(maxY-minY)) * float64(dotsY-1)))
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					setDot(cells, colors, si, dx, dy)
				})
			} else {
				setDot(cells, colors, si, px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, forceColor)
	labels := axisLabels(minY, maxY, height)
	labelWidth := 0
	for _, l := range labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", labelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			ch := rune(0x2800 + int(cells[y][x]))
			if useColor && colors[y][x] >= 0 {
				row.WriteString(plotPalette[colors[y][x]%len(plotPalette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, plotLegend(series, useColor)); err != nil {
		return err
	}
	return nil
}

func nonEmptySeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Points) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func plotBounds(series []Series) (minX, maxX int, minY, maxY float64) {
	minX, maxX = math.MaxInt, math.MinInt
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	return minX, maxX, minY, maxY
}

func axisLabels(minY, maxY float64, height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.0f ms", maxY)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f ms", (minY+maxY)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.0f ms", minY)
	}
	return labels
}

func plotLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("⠁ %s", s.Name)
		if useColor {
			label = plotPalette[i%len(plotPalette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// PlotWidthFor computes a plot width that fits within the total available
// width, leaving room for the axis labels.
func PlotWidthFor(totalWidth int) int {
	width := totalWidth - len("00000 ms") - len(axisSeparator)
	if width < minPlotWidth {
		width = minPlotWidth
	}
	return width
}

func autoPlotWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = terminalWidthBackup
	}
	return PlotWidthFor(width)
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func setDot(cells [][]uint8, colors [][]int, si, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
	if colors[cellY][cellX] == -1 {
		colors[cellY][cellX] = si
	}
}

func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	return masks[x][y]
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}
