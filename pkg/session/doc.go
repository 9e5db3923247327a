/*
Package session implements session data management for the dispatch kernel.

A Manager loads a caller's session data from any ports.MemoryStore into a Session,
which the engine binds against like every other store. Writes back to the backing
store are serialized per session id, in-process through reference-counted locks and
across replicas through an optional ports.DistributedLocker.
*/
package session
