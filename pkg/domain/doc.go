/*
Package domain contains the core types of the Leynos dispatch engine.

It defines the values that flow through a dispatch: the request context, exit states,
options and their overrides, messages, permissions and the error taxonomy. This package
is kept pure and free of I/O so that every other layer can depend on it.

# Key Entities

  - Request: The explicit, immutable context of one incoming request.
  - ExitState: Maps a controller exit code to a response action (render, redirect, rewrite).
  - Options / Overrides: Behaviour flags resolved through the global, group and route cascade.
  - Message: User-facing notices accumulated across slices and persisted in the session.
  - Identity / PermissionSet: Who is calling and which permission tokens they hold.
*/
package domain
