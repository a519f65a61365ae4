// Package csvimport parses uploaded delimited text into lead records using
// simple column-name sniffing: row 0 is the header, columns are located by
// substring match, and a missing name column yields zero leads.
package csvimport

import (
	"encoding/csv"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadsync_backend/internal/leads/domain"
)

// Import parses CSV file contents into leads. Every produced lead gets a
// freshly generated id, so re-importing the same file produces duplicate
// leads; operators rely on re-import appending, so this stays as-is.
func Import(contents string) []domain.Lead {
	reader := csv.NewReader(strings.NewReader(contents))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	nameIdx, emailIdx, phoneIdx := sniffColumns(records[0])
	if nameIdx == -1 {
		return nil
	}

	now := time.Now()
	var leads []domain.Lead
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}

		lead := domain.Lead{
			ID:        "csv-" + uuid.NewString(),
			FullName:  field(record, nameIdx),
			Email:     field(record, emailIdx),
			Phone:     field(record, phoneIdx),
			Status:    domain.StatusNewLead,
			Source:    domain.SourceCSVUpload,
			CreatedAt: now,
			UpdatedAt: now,
			Notes:     "Imported from CSV upload",
		}
		if lead.FullName == "" || !lead.HasContact() {
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

// sniffColumns locates the name/email/phone columns by case-insensitive
// substring match; the first matching column wins.
func sniffColumns(header []string) (nameIdx, emailIdx, phoneIdx int) {
	nameIdx, emailIdx, phoneIdx = -1, -1, -1
	for i, h := range header {
		label := strings.ToLower(strings.TrimSpace(h))
		switch {
		case nameIdx == -1 && strings.Contains(label, "name"):
			nameIdx = i
		case emailIdx == -1 && strings.Contains(label, "email"):
			emailIdx = i
		case phoneIdx == -1 && strings.Contains(label, "phone"):
			phoneIdx = i
		}
	}
	return nameIdx, emailIdx, phoneIdx
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
