/*
Package pitstop runs a predictive maintenance workflow for connected vehicles
as a graph of role-bound agents.

Every agent acts under a role, and every external effect it needs (reading
fleet data, invoking a language model, listing or booking service slots) is a
capability checked against a tool access policy before it runs. Denied
attempts never reach the collaborator and are recorded for audit.

# Workflow

	data_analysis -> diagnosis -> customer_engagement -(decide)-> scheduling -> feedback_and_insight
	                                                           \-> handle_decline

The decide router books the customer when the diagnosed risk score (DRPS) is
above 80 and records a declined follow-up otherwise.

# Usage

	eng, err := pitstop.New(ports.Collaborators{
		Telemetry:  fleet,
		Classifier: heuristic.NewClassifier(0),
		Composer:   heuristic.MustComposer(""),
		Scheduler:  memory.NewScheduler(),
		Profiles:   fleet,
	}, pitstop.WithAuditSink(recorder))
	if err != nil {
		log.Fatal(err)
	}

	st, failure := eng.Run(ctx)
	if failure != nil {
		log.Printf("run halted at %s: %v", failure.Node, failure)
	}

A halted run still returns the partial state it reached.
*/
package pitstop
