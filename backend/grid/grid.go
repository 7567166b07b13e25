package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"nightsafe/backend/server/api"
)

const (
	newStatusMultiplier = 1.5

	// MinCellSize keeps every cell index of a valid coordinate inside int64.
	MinCellSize = 1e-9
)

var ErrInvalidCellSize = errors.New("cell size must be at least 1e-9 degrees")

type Point struct {
	Lat      float64
	Lon      float64
	Severity int
	Status   api.Status
	Category api.Category
}

type cellIndex struct {
	latX, lonX int64
}

type cell struct {
	idx       cellIndex
	count     int
	weight    float64
	latSum    float64 // weighted
	lonSum    float64 // weighted
	catWeight [api.CategoryCount]float64
}

// Cell is one populated grid square.
type Cell struct {
	Id               string
	Bounds           api.ViewPort
	Center           api.Point
	Count            int
	Weight           float64
	Intensity        float64
	DominantCategory api.Category
}

// Aggregator buckets points into square cells of cellSize degrees.
// It holds no shared state, every Build call uses a fresh one.
type Aggregator struct {
	cellSize float64
	v        map[cellIndex]*cell
}

func NewAggregator(cellSize float64) (*Aggregator, error) {
	if !(cellSize >= MinCellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}
	return &Aggregator{
		cellSize: cellSize,
		v:        make(map[cellIndex]*cell),
	}, nil
}

func StatusMultiplier(s api.Status) float64 {
	if s == api.StatusNew {
		return newStatusMultiplier
	}
	return 1
}

func (a *Aggregator) index(lat, lon float64) cellIndex {
	return cellIndex{
		latX: int64(math.Floor(lat / a.cellSize)),
		lonX: int64(math.Floor(lon / a.cellSize)),
	}
}

func (a *Aggregator) AddPoint(p Point) {
	w := float64(p.Severity) * StatusMultiplier(p.Status)
	x := a.index(p.Lat, p.Lon)
	c, ok := a.v[x]
	if !ok {
		c = &cell{idx: x}
		a.v[x] = c
	}
	c.count++
	c.weight += w
	c.latSum += p.Lat * w
	c.lonSum += p.Lon * w
	if p.Category.Valid() {
		c.catWeight[p.Category] += w
	}
}

func (a *Aggregator) bounds(x cellIndex) api.ViewPort {
	return api.ViewPort{
		LatMin: float64(x.latX) * a.cellSize,
		LonMin: float64(x.lonX) * a.cellSize,
		LatMax: float64(x.latX+1) * a.cellSize,
		LonMax: float64(x.lonX+1) * a.cellSize,
	}
}

// ToArray returns cells ordered by weight, heaviest first, ties by cell index.
func (a *Aggregator) ToArray() []Cell {
	maxWeight := 0.0
	for _, c := range a.v {
		if c.weight > maxWeight {
			maxWeight = c.weight
		}
	}
	denom := math.Max(1, maxWeight)

	r := make([]Cell, 0, len(a.v))
	for _, c := range a.v {
		b := a.bounds(c.idx)
		center := api.Point{Lat: (b.LatMin + b.LatMax) / 2, Lon: (b.LonMin + b.LonMax) / 2}
		if c.weight > 0 {
			center = api.Point{Lat: c.latSum / c.weight, Lon: c.lonSum / c.weight}
		}
		r = append(r, Cell{
			Id:               fmt.Sprintf("%d_%d", c.idx.latX, c.idx.lonX),
			Bounds:           b,
			Center:           center,
			Count:            c.count,
			Weight:           c.weight,
			Intensity:        c.weight / denom,
			DominantCategory: dominant(&c.catWeight),
		})
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].Weight != r[j].Weight {
			return r[i].Weight > r[j].Weight
		}
		return r[i].Id < r[j].Id
	})
	return r
}

func dominant(w *[api.CategoryCount]float64) api.Category {
	best := api.CategoryOther
	bestW := 0.0
	for i, v := range w {
		if v > bestW {
			best, bestW = api.Category(i), v
		}
	}
	return best
}

// Build aggregates points into cells of cellSize degrees.
func Build(points []Point, cellSize float64) ([]Cell, error) {
	a, err := NewAggregator(cellSize)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		a.AddPoint(p)
	}
	return a.ToArray(), nil
}

func FromReports(reports []api.Report) []Point {
	pts := make([]Point, 0, len(reports))
	for _, r := range reports {
		pts = append(pts, Point{
			Lat:      r.Latitude,
			Lon:      r.Longitude,
			Severity: r.Severity,
			Status:   r.Status,
			Category: r.Category,
		})
	}
	return pts
}

func (c Cell) ToHeatCell() api.HeatCell {
	return api.HeatCell{
		CellId:           c.Id,
		Bounds:           c.Bounds,
		Center:           c.Center,
		Count:            c.Count,
		Weight:           c.Weight,
		Intensity:        c.Intensity,
		DominantCategory: c.DominantCategory,
	}
}
