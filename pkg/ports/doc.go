/*
Package ports defines the driven ports (interfaces) of the pose graph.

These interfaces decouple the evaluation core from its collaborators, allowing
the graph to work with various blend primitives, asset sources, graph sources
and replay stores.

# Key Interfaces

  - PoseBlender: interpolates two poses (or two single tracks) by a weight under a mask.
  - ClipSource / ClipLibrary: read-only access to sampled animation clips.
  - EventSink: receives frame events emitted by animation leaves.
  - GraphLoader: loads node definitions (e.g., from Loam or Memory).
  - DigestStore: persists per-tick pose digests for determinism checks.
*/
package ports
