package domain

// HealthStatus buckets recent error volume.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// HealthSignal is derived on demand from the event log.
// SuccessRate is a display-only estimate and drives no decision.
type HealthSignal struct {
	RecentErrors int          `json:"recent_errors"`
	SuccessRate  int          `json:"success_rate"`
	Status       HealthStatus `json:"status"`
}

// SourceHealth is one row of the health report.
type SourceHealth struct {
	SourceID     int64        `json:"source_id"`
	Name         string       `json:"name"`
	URL          string       `json:"url"`
	Enabled      bool         `json:"enabled"`
	Status       HealthStatus `json:"status"`
	RecentErrors int          `json:"recent_errors"`
	SuccessRate  int          `json:"success_rate"`
}

// HealthSummary aggregates the report rows.
type HealthSummary struct {
	Total    int          `json:"total_sources"`
	Enabled  int          `json:"enabled_sources"`
	Healthy  int          `json:"healthy_sources"`
	Warning  int          `json:"warning_sources"`
	Critical int          `json:"critical_sources"`
	Overall  HealthStatus `json:"overall_status"`
}

// HealthReport is exposed to monitoring surfaces.
type HealthReport struct {
	Summary HealthSummary  `json:"summary"`
	Sources []SourceHealth `json:"sources"`
}

// Summarize counts statuses; overall is healthy with no critical and fewer than two warnings.
func Summarize(rows []SourceHealth) HealthSummary {
	summary := HealthSummary{Total: len(rows)}
	for _, row := range rows {
		if row.Enabled {
			summary.Enabled++
		}
		switch row.Status {
		case HealthHealthy:
			summary.Healthy++
		case HealthWarning:
			summary.Warning++
		case HealthCritical:
			summary.Critical++
		}
	}

	switch {
	case summary.Critical == 0 && summary.Warning < 2:
		summary.Overall = HealthHealthy
	case summary.Critical == 0:
		summary.Overall = HealthWarning
	default:
		summary.Overall = HealthCritical
	}
	return summary
}
