package coords

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/DavidAlvaradoEspe/sc360-iem/dsp/core"
)

// Direction is a source direction relative to the listener.
// Azimuth 0 is straight ahead, positive to the left; elevation 0 is the
// horizon and 90 the zenith.
type Direction struct {
	Azimuth   float64 // degrees, (-180, 180]
	Elevation float64 // degrees
}

// NormalizeAzimuth wraps an azimuth in degrees into (-180, 180].
// NaN and infinite inputs normalize to 0.
func NormalizeAzimuth(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}

	m := math.Mod(deg, 360)
	if m > 180 {
		m -= 360
	} else if m <= -180 {
		m += 360
	}

	return m
}

// PointToDirection maps a 2D interaction point inside a circle of the given
// radius to a direction. The circle's center is the zenith (elevation 90)
// and its boundary the horizon (elevation 0); screen-left maps to +90
// degrees azimuth.
func PointToDirection(x, y, radius float64) Direction {
	az := NormalizeAzimuth(core.Degrees(math.Atan2(-x, -y)))

	ratio := 1.0
	if radius > 0 {
		ratio = core.Clamp(math.Hypot(x, y)/radius, 0, 1)
	}

	return Direction{
		Azimuth:   az,
		Elevation: (1 - ratio) * 90,
	}
}

// DirectionToPoint is the inverse of PointToDirection. It round-trips with
// PointToDirection to within 1e-6 degrees for elevations in [0, 90); the
// center (elevation 90) is degenerate, as azimuth is undefined there.
func DirectionToPoint(azDeg, elDeg, radius float64) (x, y float64) {
	distance := (1 - core.Clamp(elDeg, 0, 90)/90) * radius
	azRad := core.Radians(azDeg)

	return -math.Sin(azRad) * distance, -math.Cos(azRad) * distance
}

// DisplayQuaternion converts a direction to the four-scalar orientation
// readout. The result always has unit norm, but it is a display value and
// not necessarily a proper rotation quaternion.
func DisplayQuaternion(azDeg, elDeg float64) quat.Number {
	a := core.Radians(azDeg) / 2
	e := core.Radians(elDeg) / 2

	sinA, cosA := math.Sincos(a)
	sinE, cosE := math.Sincos(e)

	return quat.Number{
		Real: cosA * cosE,
		Imag: cosA * sinE,
		Jmag: -sinA * sinE,
		Kmag: sinA * cosE,
	}
}
