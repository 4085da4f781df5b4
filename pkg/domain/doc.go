/*
Package domain contains the core domain models of the pitstop workflow engine.

It defines the shared workflow state, the closed sets of roles, capabilities,
routing outcomes and diagnosis categories, and the error taxonomy used across
the engine. This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - State: The fixed-schema record passed through every node of a run.
  - Capability: A named external effect invocable only through the guard.
  - InvocationRecord: The audit artifact produced for every capability attempt.
  - Failure: The structured outcome of a run that did not reach a terminal node.
*/
package domain
