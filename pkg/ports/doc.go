/*
Package ports defines the driven ports (interfaces) of the pitstop engine.

These interfaces decouple the agent nodes from the collaborators that perform
the actual external effects, allowing the same workflow to run against CSV
files, Redis, an HTTP scheduling backend, or in-memory fakes.

# Key Interfaces

  - TelemetrySource: Finds flagged telemetry records and customer profiles.
  - Classifier: Picks a root-cause category for an anomaly.
  - Composer: Writes the outreach message for a customer.
  - SchedulingBackend: Lists and books service slots.
  - ProfileStore: Durable fleet profile store (recurrence counts, health scores).
*/
package ports
