// Package timeline models the composited video as immutable data.
//
// A [Clip] is anything with a duration, a frame size and an audio channel
// count: a page ([Composite]), an external file ([Media]) or a concatenation
// of clips ([Sequence]). A [Timeline] wraps the outermost clip together with an
// optional background [Sound] and flattens into a [Plan]: one list of layers
// and one list of sounds, all positioned in absolute canvas coordinates and
// absolute time. The plan is what the encoder materializes.
//
// Values are never mutated after construction; builders return fresh values.
package timeline
