/*
Package policy holds the static role to capability allow-list.

A Policy is built once at startup and never mutated afterwards, so it can be
shared by any number of concurrent runs without synchronization. Absence is
the default: a role missing from the table, or a capability missing from a
role's set, is denied. There are no wildcards and no inheritance.
*/
package policy
