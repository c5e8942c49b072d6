// Package flow holds the task registry and the composition engine.
//
// A Node is either a leaf Task or a composite: Series runs its steps strictly
// one after another and stops at the first failure; Parallel starts every
// step together and completes once all of them have settled.
//
// Parallel failure policy: every member runs to completion even when a
// sibling fails. The composite then reports all member failures combined in
// declaration order, so the first reported failure does not depend on
// scheduling.
//
// Composites are plain data; the Engine interprets them, reporting every
// node's start and completion to its observers.
package flow
