// Package sprite composites individually sized images into a single sprite sheet.
//
// Each input is described by a [Descriptor]: the source file, its true pixel
// dimensions, the box it is allotted in the sheet, a signed shift of the image
// inside that box, and the box's top-left placement ("fit") on the canvas.
// Placement is computed elsewhere; this package only honours it.
//
// # Pipeline
//
// [Combine] runs the whole operation:
//
//  1. [DecodeAll] decodes every source concurrently and waits for all of them.
//     The first failure cancels the rest and fails the operation.
//  2. [NewCanvas] sizes a transparent canvas to the furthest right and bottom
//     box edges, plus a fixed [Margin] on each axis.
//  3. [Blit] copies the visible part of each image into its box.
//  4. The canvas is PNG-encoded to a temporary file which is renamed over the
//     output path once it is fully written.
//
// # Clipping
//
// The blit rules are applied independently per axis. With pos the shift, box
// the allotted size, origin the true image size and fit the box offset:
//
//	pos > 0:  src = 0,    n = min(origin, box-pos),  dst = fit+pos
//	pos <= 0: src = -pos, n = min(origin+pos, box),  dst = fit
//
// A non-positive n on either axis copies nothing.
//
// # Overlap
//
// Boxes are expected not to overlap. Compositing is sequential in input order,
// so overlapping pixels are last-writer-wins.
package sprite
