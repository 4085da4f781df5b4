package domain

// Role identifies the agent identity a node acts as.
type Role string

const (
	RoleDataAnalysis       Role = "DataAnalysisAgent"
	RoleDiagnosis          Role = "DiagnosisAgent"
	RoleCustomerEngagement Role = "CustomerEngagementAgent"
	RoleScheduling         Role = "SchedulingAgent"
	RoleFeedback           Role = "FeedbackAgent"
)

// Capability is a named external effect. The set is closed: policies and
// guards only ever deal with the values declared here.
type Capability string

const (
	CapReadCSV           Capability = "read_csv"
	CapWriteCSV          Capability = "write_csv"
	CapLLMInvoke         Capability = "llm_invoke"
	CapGetServiceSlots   Capability = "get_service_slots"
	CapBookAppointment   Capability = "book_appointment"
	CapGetPaymentHistory Capability = "get_payment_history"
)

// Capabilities returns every known capability in declaration order.
func Capabilities() []Capability {
	return []Capability{
		CapReadCSV,
		CapWriteCSV,
		CapLLMInvoke,
		CapGetServiceSlots,
		CapBookAppointment,
		CapGetPaymentHistory,
	}
}

// Valid reports whether c belongs to the closed capability set.
func (c Capability) Valid() bool {
	switch c {
	case CapReadCSV, CapWriteCSV, CapLLMInvoke, CapGetServiceSlots, CapBookAppointment, CapGetPaymentHistory:
		return true
	}
	return false
}

// Outcome is a routing label produced by a router.
type Outcome string

const (
	OutcomeContinueToScheduling Outcome = "continue_to_scheduling"
	OutcomeHandleDecline        Outcome = "handle_decline"
)
