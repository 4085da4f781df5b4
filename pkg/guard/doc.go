/*
Package guard is the single enforcement point between agent nodes and the
capabilities they use.

Every capability call goes through Invoke or Attempt with an explicit role and
capability name. The guard consults the policy, runs the wrapped function only
when the role is allowed to, and hands exactly one InvocationRecord per attempt
to its AuditSink, whatever the outcome.

Invoke treats a denial as an error (*domain.PolicyViolation). Attempt returns
the denial as part of a typed Result so that nodes expecting a denial can
branch on it without inspecting errors.
*/
package guard
