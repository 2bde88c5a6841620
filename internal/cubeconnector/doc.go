// Package cubeconnector drives the radio link between a base station and
// its wireless "cube" peripherals: discovering a physically-neighbored
// cube, verifying it, pairing it for long-term identity, reconnecting
// previously-paired cubes, and handing a live connection off to a
// per-cube runtime slot.
//
// The core type, Connector, is a single owned object with no package
// level mutable state: construct one with New and drive it from the
// radio transport's Produce/Acknowledge/Timeout/EmptyAcknowledge
// callbacks, all of which must be called from a single goroutine (the
// transport's receive loop plays the role of the original firmware's
// radio interrupt handler). Task may be called concurrently with those
// from any goroutine; it only touches fields guarded by atomicBitset.
package cubeconnector
