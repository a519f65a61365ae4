package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"leadsync_backend/internal/leads/domain"
)

// StatusCount pairs a pipeline stage with its lead count, in board order.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Analytics is the aggregate funnel view of the current lead list.
type Analytics struct {
	TotalLeads     int            `json:"totalLeads"`
	ClosedLeads    int            `json:"closedLeads"`
	ConversionRate float64        `json:"conversionRate"`
	TotalRevenue   int64          `json:"totalRevenue"`
	LeadsByStatus  []StatusCount  `json:"leadsByStatus"`
	LeadsBySource  map[string]int `json:"leadsBySource"`
}

// Analytics computes funnel metrics over the full lead list. Conversion rate
// is closed over total as a percentage; revenue sums closed deal values.
func (s *Service) Analytics(ctx context.Context) Analytics {
	leads := s.repo.All(ctx)

	byStatus := make(map[domain.Status]int)
	bySource := make(map[string]int)
	var closed int
	var revenue int64

	for _, l := range leads {
		byStatus[l.Status]++
		bySource[string(l.Source)]++
		if l.Status == domain.StatusClosed {
			closed++
			revenue += l.Value
		}
	}

	result := Analytics{
		TotalLeads:    len(leads),
		ClosedLeads:   closed,
		TotalRevenue:  revenue,
		LeadsBySource: bySource,
	}
	if len(leads) > 0 {
		result.ConversionRate = float64(closed) / float64(len(leads)) * 100
	}
	for _, st := range domain.PipelineStages {
		result.LeadsByStatus = append(result.LeadsByStatus, StatusCount{
			Status: string(st),
			Count:  byStatus[st],
		})
	}
	return result
}

var exportHeader = []string{
	"id", "fullName", "email", "phone", "company", "status", "source",
	"value", "createdAt", "formName", "campaignName", "notes",
}

// ExportCSV renders the full lead list as a CSV document.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	leads := s.repo.All(ctx)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, l := range leads {
		record := []string{
			l.ID, l.FullName, l.Email, l.Phone, l.Company,
			string(l.Status), string(l.Source),
			strconv.FormatInt(l.Value, 10),
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.FormName, l.CampaignName, l.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
