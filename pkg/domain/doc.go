/*
Package domain contains the core value types of the pose graph.

It defines what flows through the graph (poses, single tracks, track masks),
how a graph is described (node definitions, play states, end policies) and what
the graph reports back (frame events, lifecycle hooks). This package is kept
pure and free of I/O and persistence, following Hexagonal Architecture
principles; the only dependency is the fixed-point number type.

# Key Entities

  - Transform: translation, rotation and scale of one track, in fixed point.
  - TrackMask: an immutable bitset of the tracks a pose defines.
  - PoseOutput: a full pose, one Transform per track plus its mask.
  - SingleTrackOutput: the answer of a sparse single-track query.
  - NodeDef: the declarative description of one graph node.
  - Clip: a read-only sequence of poses indexed by frame.
*/
package domain
