// Package imaging provides inspection and verification helpers around sprite
// sheets.
//
// It covers the steps on either side of combining: measuring source images so
// a layout producer can fill in their true dimensions, checking a finished
// sheet against the layout it was built from, and cutting single sprites back
// out of a sheet for preview.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions are given as a
// top-left corner plus width and height.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Verification functions are
// stateless and may be called concurrently.
//
// # Colour Comparison
//
// Verification compares pixels in CIE L*a*b* space using the CIEDE2000
// distance, so a tolerance behaves uniformly across hues. Alpha is compared
// exactly.
package imaging
