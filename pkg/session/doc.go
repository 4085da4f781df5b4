// Package session serializes the work done on a single vehicle.
//
// Two runs for the same vehicle would book two appointments and credit the
// health score twice, so the engine holds a vehicle session for the whole
// run. Sessions are local mutexes, optionally backed by a DistributedLocker
// when several replicas share the same stores.
package session
