package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "jobtrail"

// Metrics holds all Jobtrail metric instruments.
type Metrics struct {
	ProposalsCreated metric.Int64Counter
	ProposalsSkipped metric.Int64Counter
	Approvals        metric.Int64Counter
	Rejections       metric.Int64Counter
	Executions       metric.Int64Counter
	ExecutionsFailed metric.Int64Counter
	ProposeDuration  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ProposalsCreated, err = meter.Int64Counter("jobtrail.proposals.created",
		metric.WithDescription("Number of pending proposals created"))
	if err != nil {
		return nil, err
	}

	m.ProposalsSkipped, err = meter.Int64Counter("jobtrail.proposals.skipped",
		metric.WithDescription("Number of emails skipped (outstanding pending proposal)"))
	if err != nil {
		return nil, err
	}

	m.Approvals, err = meter.Int64Counter("jobtrail.proposals.approved",
		metric.WithDescription("Number of proposals approved"))
	if err != nil {
		return nil, err
	}

	m.Rejections, err = meter.Int64Counter("jobtrail.proposals.rejected",
		metric.WithDescription("Number of proposals rejected"))
	if err != nil {
		return nil, err
	}

	m.Executions, err = meter.Int64Counter("jobtrail.actions.executed",
		metric.WithDescription("Number of actions executed successfully"))
	if err != nil {
		return nil, err
	}

	m.ExecutionsFailed, err = meter.Int64Counter("jobtrail.actions.failed",
		metric.WithDescription("Number of action executions that failed"))
	if err != nil {
		return nil, err
	}

	m.ProposeDuration, err = meter.Float64Histogram("jobtrail.propose.duration_seconds",
		metric.WithDescription("Proposal run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
