// Package geo summarises camera paths with simplefeatures geometry.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrEmptyPath is returned when there are no points to summarise.
var ErrEmptyPath = errors.New("path has no points")

// Bounds is an axis-aligned box around a path.
type Bounds struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// PathGeometry describes the route a camera takes through the world.
type PathGeometry struct {
	// Length is the 3D polyline length in metres.
	Length float64 `json:"pathLength"`
	// Footprint is the length of the path projected onto the map plane.
	Footprint float64 `json:"footprint"`
	Bounds    Bounds  `json:"bounds"`
	WKT       string  `json:"wkt"`
}

// LineString builds an XYZ line string through points.
func LineString(points []mgl64.Vec3) (geom.LineString, error) {
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.X(), p.Y(), p.Z())
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// Describe computes the geometry of a path. A single point yields a
// degenerate path of zero length.
func Describe(points []mgl64.Vec3) (PathGeometry, error) {
	if len(points) == 0 {
		return PathGeometry{}, ErrEmptyPath
	}

	var g PathGeometry
	for i := 1; i < len(points); i++ {
		g.Length += points[i].Sub(points[i-1]).Len()
	}

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minZ = math.Min(minZ, p.Z())
		maxZ = math.Max(maxZ, p.Z())
	}

	if len(points) == 1 {
		p := points[0]
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X(), Y: p.Y()},
			Z:    p.Z(),
			Type: geom.CoordinatesType(geom.DimXYZ),
		})
		if err != nil {
			return PathGeometry{}, fmt.Errorf("invalid path point: %w", err)
		}
		g.WKT = pt.AsText()
		g.Bounds = Bounds{Min: p, Max: p}
		return g, nil
	}

	ls, err := LineString(points)
	if err != nil {
		return PathGeometry{}, fmt.Errorf("invalid path: %w", err)
	}
	g.Footprint = ls.Length()
	g.WKT = ls.AsText()
	if lo, hi, ok := ls.Envelope().MinMaxXYs(); ok {
		g.Bounds = Bounds{
			Min: mgl64.Vec3{lo.X, lo.Y, minZ},
			Max: mgl64.Vec3{hi.X, hi.Y, maxZ},
		}
	}
	return g, nil
}
