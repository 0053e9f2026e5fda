// Package pipeline measures a gasket or joint photographed next to a bank card.
//
// A Pipeline is a pure function of its input bytes and its Config. Every call owns its
// intermediate images, so a single Pipeline may be used from any number of goroutines
// at once. Calls are CPU bound and cannot be cancelled; callers that serve requests
// should run them on a bounded worker pool.
//
// The stages of Process are:
//
//  1. decode and cap the working width (imaging.NormalizeResolution)
//  2. locate the card, refine its corners and order them (detection.LocateCard,
//     detection.RefineCorners, geometry.OrderCorners)
//  3. rectify onto a 10 px/mm plane, or stretch proportionally when there is no card
//  4. enhance contrast and extract the joint outline (imaging.CLAHE,
//     detection.ExtractJoint)
//  5. convert to millimetres and map the outline back to [0,1] frame coordinates
package pipeline
