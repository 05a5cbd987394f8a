package analyzer

import (
	"image"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator with row-strip parallelism
// and Gonum statistics
type metricsCalculator struct {
	workers   int
	slicePool sync.Pool
}

// NewMetricsCalculator creates a metrics calculator; workers <= 0 uses the CPU count
func NewMetricsCalculator(workers int) MetricsCalculator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &metricsCalculator{
		workers: workers,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// CalculateLaplacianVariance returns the population variance of the 3x3
// Laplacian [0 1 0; 1 -4 1; 0 1 0] evaluated at every pixel, using a
// reflect-101 border (the pixel past the edge mirrors the one inside it).
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	if width == 0 || height == 0 {
		return 0
	}

	data := mc.getSlice(width * height)
	defer mc.putSlice(data)

	mc.forEachStrip(height, func(startY, endY int) {
		for y := startY; y < endY; y++ {
			up, down := reflect101(y-1, height), reflect101(y+1, height)
			for x := 0; x < width; x++ {
				left, right := reflect101(x-1, width), reflect101(x+1, width)
				center := luminanceAt(gray, x, y)
				data[y*width+x] = luminanceAt(gray, x, up) + luminanceAt(gray, x, down) +
					luminanceAt(gray, left, y) + luminanceAt(gray, right, y) - 4*center
			}
		}
	})

	return stat.PopVariance(data, nil)
}

// CalculateContrast returns the population standard deviation of luminance
func (mc *metricsCalculator) CalculateContrast(gray *image.Gray) float64 {
	values := mc.luminance(gray)
	defer mc.putSlice(values)
	if len(values) == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// CalculateBrightness returns the mean luminance
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	values := mc.luminance(gray)
	defer mc.putSlice(values)
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// luminance flattens the grid into a pooled slice
func (mc *metricsCalculator) luminance(gray *image.Gray) []float64 {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	values := mc.getSlice(width * height)

	mc.forEachStrip(height, func(startY, endY int) {
		for y := startY; y < endY; y++ {
			for x := 0; x < width; x++ {
				values[y*width+x] = luminanceAt(gray, x, y)
			}
		}
	})
	return values
}

// forEachStrip processes the image in horizontal strips for better cache locality
func (mc *metricsCalculator) forEachStrip(height int, fn func(startY, endY int)) {
	numWorkers := mc.workers
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for startY := 0; startY < height; startY += rowsPerWorker {
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			fn(startY, endY)
		}(startY, endY)
	}
	wg.Wait()
}

func (mc *metricsCalculator) getSlice(n int) []float64 {
	data := mc.slicePool.Get().([]float64)
	if cap(data) < n {
		data = make([]float64, n)
	}
	return data[:n]
}

func (mc *metricsCalculator) putSlice(data []float64) {
	mc.slicePool.Put(data[:0])
}

// luminanceAt reads the pixel at (x, y) relative to the grid origin
func luminanceAt(gray *image.Gray, x, y int) float64 {
	b := gray.Bounds()
	return float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
}

// reflect101 maps an out-of-range index back inside [0, n) by mirroring
// around the edge pixel: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}

// clamp maps an out-of-range index onto the nearest edge pixel
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
