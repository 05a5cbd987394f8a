package analyzer

import (
	"image"
	"math"
)

const (
	tan22_5 = 0.4142135623730951 // tan(22.5°)
	tan67_5 = 2.414213562373095  // tan(67.5°)
)

// edge classification during hysteresis
const (
	edgeNone uint8 = iota
	edgeWeak
	edgeStrong
)

// CalculateEdgeDensity runs a Canny detector over the grid and returns the
// fraction of pixels classified as edges.
//
// Gradients come from 3x3 Sobel kernels with a replicated border and an L1
// magnitude. Non-maximum suppression compares each pixel with its two
// neighbours along the quantised gradient direction; survivors above high
// seed a hysteresis walk that promotes 8-connected survivors above low.
func (mc *metricsCalculator) CalculateEdgeDensity(gray *image.Gray, low, high float64) float64 {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	total := width * height
	if total == 0 {
		return 0
	}

	gx := make([]int32, total)
	gy := make([]int32, total)
	mag := make([]float64, total)

	mc.forEachStrip(height, func(startY, endY int) {
		for y := startY; y < endY; y++ {
			for x := 0; x < width; x++ {
				i := y*width + x
				sx := calculateSobelX(gray, x, y, width, height)
				sy := calculateSobelY(gray, x, y, width, height)
				gx[i], gy[i] = int32(sx), int32(sy)
				mag[i] = math.Abs(float64(sx)) + math.Abs(float64(sy))
			}
		}
	})

	magAt := func(x, y int) float64 {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return mag[y*width+x]
	}

	state := make([]uint8, total)
	stack := make([]int, 0, 256)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := mag[i]
			if m <= low {
				continue
			}

			ax := math.Abs(float64(gx[i]))
			ay := math.Abs(float64(gy[i]))

			var isMax bool
			switch {
			case ay < ax*tan22_5:
				isMax = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67_5:
				isMax = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (gx[i] < 0) != (gy[i] < 0) {
					s = -1
				}
				isMax = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !isMax {
				continue
			}

			if m > high {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				j := ny*width + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	edges := 0
	for _, s := range state {
		if s == edgeStrong {
			edges++
		}
	}
	return float64(edges) / float64(total)
}

// calculateSobelX computes the Sobel X gradient with a replicated border
func calculateSobelX(gray *image.Gray, x, y, width, height int) int {
	l, r := clamp(x-1, width), clamp(x+1, width)
	u, d := clamp(y-1, height), clamp(y+1, height)
	p := func(px, py int) int { return int(luminanceAt(gray, px, py)) }

	return -1*p(l, u) + 1*p(r, u) +
		-2*p(l, y) + 2*p(r, y) +
		-1*p(l, d) + 1*p(r, d)
}

// calculateSobelY computes the Sobel Y gradient with a replicated border
func calculateSobelY(gray *image.Gray, x, y, width, height int) int {
	l, r := clamp(x-1, width), clamp(x+1, width)
	u, d := clamp(y-1, height), clamp(y+1, height)
	p := func(px, py int) int { return int(luminanceAt(gray, px, py)) }

	return -1*p(l, u) - 2*p(x, u) - 1*p(r, u) +
		1*p(l, d) + 2*p(x, d) + 1*p(r, d)
}
