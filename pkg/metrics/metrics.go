// Package metrics implements the Metrics Aggregator: pure reports computed
// from the event log, with no separately persisted aggregates.
package metrics

import (
	"encoding/json"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
)

// DailyReport summarises one calendar day of activity.
type DailyReport struct {
	Date                string  `json:"date"`
	RecommendationCount int     `json:"recommendation_count"`
	DirectCount         int     `json:"direct_count"`
	EscalateCount       int     `json:"escalate_count"`
	AgentStartCount     int     `json:"agent_start_count"`
	AgentStopCount      int     `json:"agent_stop_count"`
}

// ComplianceReport breaks down compliance over a date range, overall and
// per routing_agent.
type ComplianceReport struct {
	Since                string               `json:"since"`
	Until                string               `json:"until"`
	TotalRecommendations int                  `json:"total_recommendations"`
	StatusCounts         map[string]int       `json:"status_counts"`
	ComplianceRate       float64              `json:"compliance_rate"`
	UnknownRate          float64              `json:"unknown_rate"`
	ByAgent              map[string]AgentStat `json:"by_agent"`
}

// AgentStat is a single routing_agent's compliance breakdown.
type AgentStat struct {
	Followed    int `json:"followed"`
	Ignored     int `json:"ignored"`
	Unknown     int `json:"unknown"`
	NoDirective int `json:"no_directive"`
}

const dateLayout = "2006-01-02"

// DailyReportFor computes a DailyReport for the given calendar date.
func DailyReportFor(log *eventlog.Log, date time.Time) (DailyReport, error) {
	day := truncateDay(date)
	events, err := log.ReadRange(day, day)
	if err != nil {
		return DailyReport{}, err
	}

	report := DailyReport{Date: day.Format(dateLayout)}
	for _, e := range events {
		switch e.RecordType {
		case eventlog.RecordRoutingRecommendation:
			report.RecommendationCount++
			var full struct {
				FullAnalysis struct {
					Decision string `json:"decision"`
				} `json:"full_analysis"`
			}
			if err := json.Unmarshal(e.Raw(), &full); err == nil {
				switch full.FullAnalysis.Decision {
				case "DIRECT":
					report.DirectCount++
				case "ESCALATE":
					report.EscalateCount++
				}
			}
		case eventlog.RecordAgentEvent:
			var ae struct {
				Event eventlog.AgentEventKind `json:"event"`
			}
			if err := json.Unmarshal(e.Raw(), &ae); err == nil {
				switch ae.Event {
				case eventlog.AgentEventStart:
					report.AgentStartCount++
				case eventlog.AgentEventStop:
					report.AgentStopCount++
				}
			}
		}
	}
	return report, nil
}

// WeeklyReport aggregates seven DailyReports starting from the Monday of
// the ISO week containing weekStart.
func WeeklyReport(log *eventlog.Log, weekStart time.Time) ([]DailyReport, error) {
	monday := isoMonday(weekStart)
	reports := make([]DailyReport, 0, 7)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		r, err := DailyReportFor(log, day)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// ComplianceReportFor computes compliance statistics over [since, until].
func ComplianceReportFor(log *eventlog.Log, since, until time.Time) (ComplianceReport, error) {
	events, err := log.ReadRange(since, until)
	if err != nil {
		return ComplianceReport{}, err
	}

	report := ComplianceReport{
		Since:        since.Format(dateLayout),
		Until:        until.Format(dateLayout),
		StatusCounts: make(map[string]int),
		ByAgent:      make(map[string]AgentStat),
	}

	for _, e := range events {
		switch e.RecordType {
		case eventlog.RecordRoutingRecommendation:
			report.TotalRecommendations++
		case eventlog.RecordRequestTracking:
			var rt eventlog.RequestTrackingEvent
			if err := json.Unmarshal(e.Raw(), &rt); err != nil {
				continue
			}
			report.StatusCounts[string(rt.ComplianceStatus)]++

			agent := rt.RoutingAgent
			if agent == "" {
				agent = "(escalate)"
			}
			stat := report.ByAgent[agent]
			switch rt.ComplianceStatus {
			case eventlog.ComplianceFollowed:
				stat.Followed++
			case eventlog.ComplianceIgnored:
				stat.Ignored++
			case eventlog.ComplianceUnknown:
				stat.Unknown++
			case eventlog.ComplianceNoDirective:
				stat.NoDirective++
			}
			report.ByAgent[agent] = stat
		}
	}

	if report.TotalRecommendations > 0 {
		total := float64(report.TotalRecommendations)
		report.ComplianceRate = float64(report.StatusCounts[string(eventlog.ComplianceFollowed)]) / total
		report.UnknownRate = float64(report.StatusCounts[string(eventlog.ComplianceUnknown)]) / total
	}

	return report, nil
}

// Cleanup deletes daily event log files older than retentionDays, never
// touching state/, memory/, or cache/ (those live in sibling directories
// outside log's own tree).
func Cleanup(log *eventlog.Log, now time.Time, retentionDays int) (int, error) {
	return log.Cleanup(now, retentionDays)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isoMonday returns the Monday of the ISO week containing t.
func isoMonday(t time.Time) time.Time {
	day := truncateDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
