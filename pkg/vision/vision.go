// Package vision defines the contract a fiducial marker detector
// implements. The robot core does not process camera frames itself; a
// detector plugs in behind this interface.
package vision

import (
	"context"
	"image"
)

// Pose locates a marker relative to the camera, spherical coordinates.
type Pose struct {
	// Distance to the marker centre, in millimetres.
	Distance float64
	// Azimuth is the horizontal angle in radians, positive rightward.
	Azimuth float64
	// Elevation is the vertical angle in radians, positive upward.
	Elevation float64
}

// Marker is one detected fiducial marker.
type Marker struct {
	ID           int
	PixelCorners [4]image.Point
	Pose         Pose
}

// Detector finds markers in a camera frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Marker, error)
}
