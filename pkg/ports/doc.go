/*
Package ports defines the driven ports (interfaces) of the Leynos dispatch engine.

These interfaces decouple the dispatch core from its collaborators, so that memory
stores, views, transports and databases can be swapped without touching the engine.

# Key Interfaces

  - MemoryStore: Keyed get/set used for group caching and every slice store binding.
  - View / BinaryView / TemplateEngine: Renderers handed the final data accumulator.
  - HeaderWriter / ResponseWriter: Transport-neutral response emission.
  - Databases: Per-request database connections shared across slices.
  - Authenticator: Maps a session to the caller's identity and permissions.
  - DistributedLocker: Coordinates session writes across replicas.
*/
package ports
