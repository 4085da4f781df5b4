// Package agents defines the nodes of the predictive maintenance workflow and
// wires them into the standard graph.
//
// Nodes never hold collaborators directly. Every external effect goes through
// a Toolbox method, which names the capability and runs it behind the guard
// with the calling node's role.
package agents
