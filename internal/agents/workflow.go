package agents

import (
	"io"
	"log/slog"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
)

// Node names of the standard workflow.
const (
	NodeDataAnalysis       = "data_analysis"
	NodeDiagnosis          = "diagnosis"
	NodeCustomerEngagement = "customer_engagement"
	NodeScheduling         = "scheduling"
	NodeHandleDecline      = "handle_decline"
	NodeFeedback           = "feedback_and_insight"
)

// Thresholds and constants of the maintenance workflow.
const (
	// AnomalyThresholdPSI flags brake fluid pressure strictly below it.
	AnomalyThresholdPSI = 450.0
	// UrgentDRPS is the score from which outreach is urgent.
	UrgentDRPS = 75
	// ScheduleDRPS is the score above which the customer is booked.
	ScheduleDRPS = 80
	// HealthScoreBonus is credited to a vehicle after service.
	HealthScoreBonus = 50
	// SlotChoice is the index of the offered slot that gets booked.
	SlotChoice = 1
	// FallbackRCA is cited when no analysis is linked to the trouble code.
	FallbackRCA = "RCA-112"
	// DeclineStatus is the booking status of a declined engagement.
	DeclineStatus = "Declined - Follow-up Scheduled"
)

// Option configures the standard workflow.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	threshold float64
}

// WithLogger sets the logger nodes report progress to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithThreshold overrides AnomalyThresholdPSI. Values of zero or less are ignored.
func WithThreshold(psi float64) Option {
	return func(c *config) {
		if psi > 0 {
			c.threshold = psi
		}
	}
}

// Workflow builds the standard maintenance graph:
//
//	data_analysis -> diagnosis -> customer_engagement -(decide)-> scheduling -> feedback_and_insight
//	                                                           \-> handle_decline
func Workflow(tools *Toolbox, opts ...Option) (*graph.Graph, error) {
	cfg := config{threshold: AnomalyThresholdPSI}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base := agent{tools: tools, logger: cfg.logger, threshold: cfg.threshold}

	b := graph.New().Entry(NodeDataAnalysis)
	b.Add(NodeDataAnalysis, &dataAnalysis{base.as(domain.RoleDataAnalysis, NodeDataAnalysis)}).Go(NodeDiagnosis)
	b.Add(NodeDiagnosis, &diagnosis{base.as(domain.RoleDiagnosis, NodeDiagnosis)}).Go(NodeCustomerEngagement)
	b.Add(NodeCustomerEngagement, &engagement{base.as(domain.RoleCustomerEngagement, NodeCustomerEngagement)}).
		Branch(Decide(), map[domain.Outcome]string{
			domain.OutcomeContinueToScheduling: NodeScheduling,
			domain.OutcomeHandleDecline:        NodeHandleDecline,
		})
	b.Add(NodeScheduling, &scheduling{base.as(domain.RoleScheduling, NodeScheduling)}).Go(NodeFeedback)
	b.Add(NodeHandleDecline, &decline{base.as(domain.RoleCustomerEngagement, NodeHandleDecline)}).Terminal()
	b.Add(NodeFeedback, &feedback{base.as(domain.RoleFeedback, NodeFeedback)}).Terminal()
	return b.Build()
}

// Decide routes on the DRPS: strictly above ScheduleDRPS continues to
// scheduling, anything else is handled as a decline.
func Decide() graph.Router {
	return graph.NewRouter("decide",
		[]domain.Outcome{domain.OutcomeContinueToScheduling, domain.OutcomeHandleDecline},
		func(st *domain.State) (domain.Outcome, error) {
			if err := st.Require("decide", domain.FieldDRPS); err != nil {
				return "", err
			}
			if *st.DRPS > ScheduleDRPS {
				return domain.OutcomeContinueToScheduling, nil
			}
			return domain.OutcomeHandleDecline, nil
		})
}

// agent carries what every node needs.
type agent struct {
	tools     *Toolbox
	logger    *slog.Logger
	threshold float64
	role      domain.Role
	name      string
}

func (a agent) as(role domain.Role, name string) agent {
	a.role = role
	a.name = name
	a.logger = a.logger.With("node", name, "role", role)
	return a
}

func (a agent) Role() domain.Role {
	return a.role
}
