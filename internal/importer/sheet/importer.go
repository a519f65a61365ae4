// Package sheet imports leads from spreadsheet tabs exposed over the gviz
// JSON transport: it maps columns to fields by header keyword matching,
// derives stable content-based ids, and deduplicates across tabs.
package sheet

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

const (
	unknownNameSentinel = "Unknown Name"
	fetchTimeout        = 15 * time.Second
)

var (
	emailSafeRe  = regexp.MustCompile(`[^a-z0-9@.]`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	idPrefixRe   = regexp.MustCompile(`^l:`)
	whitespaceRe = regexp.MustCompile(`\s`)
)

// Importer fetches configured tabs and produces a deduplicated lead list.
type Importer struct {
	sheetID string
	baseURL string
	mapping Mapping
	http    *http.Client
	log     *logger.Logger
	now     func() time.Time
}

// Config is the subset of application config the importer needs.
type Config interface {
	GetSheetID() string
	GetSheetBaseURL() string
}

// New creates a sheet importer.
func New(cfg Config, mapping Mapping, log *logger.Logger) *Importer {
	return &Importer{
		sheetID: cfg.GetSheetID(),
		baseURL: cfg.GetSheetBaseURL(),
		mapping: mapping,
		http:    &http.Client{Timeout: fetchTimeout},
		log:     log,
		now:     time.Now,
	}
}

// Sync fetches every configured tab, extracts leads, and deduplicates by id
// (later tabs win on collision: content-derived ids mean a collision is the
// same real lead). Individual tab failures are logged and skipped; the sync
// fails only when no tab could be used at all.
func (imp *Importer) Sync(ctx context.Context) ([]domain.Lead, error) {
	if imp.sheetID == "" || len(imp.mapping.Tabs) == 0 {
		return nil, nil
	}

	var all []domain.Lead
	failures := 0

	for _, tab := range imp.mapping.Tabs {
		leads, err := imp.syncTab(ctx, tab)
		if err != nil {
			failures++
			if imp.log != nil {
				imp.log.Warn("sheet tab skipped", "tab", tab.Name, "error", err)
			}
			continue
		}
		all = append(all, leads...)
	}

	if failures == len(imp.mapping.Tabs) {
		return nil, apperr.Upstream("could not sync with the spreadsheet source")
	}

	return dedupeByID(all), nil
}

func (imp *Importer) syncTab(ctx context.Context, tab Tab) ([]domain.Lead, error) {
	rawURL, err := tabURL(imp.baseURL, imp.sheetID, tab)
	if err != nil {
		return nil, err
	}

	table, err := fetchTab(ctx, imp.http, rawURL)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, nil
	}

	headers, startIndex := resolveHeaders(table)
	idx := imp.resolveFields(headers)

	var leads []domain.Lead
	for i := startIndex; i < len(table.Rows); i++ {
		lead, ok := imp.extractRow(table.Rows[i], idx, tab, i)
		if !ok {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// resolveHeaders returns the lower-cased header texts and the index of the
// first data row. Column labels are used when the transport provides them;
// otherwise row 0 is the header and data starts at row 1.
func resolveHeaders(table gvizTable) ([]string, int) {
	hasLabels := false
	for _, col := range table.Cols {
		if col.Label != "" {
			hasLabels = true
			break
		}
	}

	if hasLabels {
		headers := make([]string, len(table.Cols))
		for i, col := range table.Cols {
			headers[i] = strings.ToLower(col.Label)
		}
		return headers, 0
	}

	first := table.Rows[0]
	headers := make([]string, len(first.C))
	for i := range first.C {
		headers[i] = strings.ToLower(cellValue(first, i))
	}
	return headers, 1
}

// fieldIndexes holds the resolved column index per logical field; -1 means
// the column is absent and every row reads as empty.
type fieldIndexes struct {
	id, created, name, firstName, lastName int
	email, phone, platform                 int
	form, campaign, ad, status             int
}

func (imp *Importer) resolveFields(headers []string) fieldIndexes {
	k := imp.mapping.Headers
	return fieldIndexes{
		id:        findIndex(headers, k.ID),
		created:   findIndex(headers, k.Created),
		name:      findIndex(headers, k.Name),
		firstName: findIndex(headers, k.FirstName),
		lastName:  findIndex(headers, k.LastName),
		email:     findIndex(headers, k.Email),
		phone:     findIndex(headers, k.Phone),
		platform:  findIndex(headers, k.Platform),
		form:      findIndex(headers, k.Form),
		campaign:  findIndex(headers, k.Campaign),
		ad:        findIndex(headers, k.Ad),
		status:    findIndex(headers, k.Status),
	}
}

func findIndex(headers []string, keywords []string) int {
	for i, h := range headers {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

func (imp *Importer) extractRow(row gvizRow, idx fieldIndexes, tab Tab, rowIndex int) (domain.Lead, bool) {
	rawID := cellValue(row, idx.id)
	email := cellValue(row, idx.email)
	phone := cellValue(row, idx.phone)

	fullName := resolveName(row, idx)
	if fullName == unknownNameSentinel {
		return domain.Lead{}, false
	}
	if email == "" && phone == "" {
		return domain.Lead{}, false
	}

	status := domain.ParseStatus(cellValue(row, idx.status))

	var value int64
	if status == domain.StatusClosed {
		value = domain.DefaultClosedValue
	}

	lead := domain.Lead{
		ID:           deriveID(rawID, email, phone, tab, rowIndex),
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		Company:      "Individual",
		Status:       status,
		Source:       domain.SourceMetaInstantForm,
		CreatedAt:    parseCreated(cellValue(row, idx.created), imp.now()),
		UpdatedAt:    imp.now(),
		MetaLeadID:   rawID,
		Value:        value,
		FormName:     orDefault(cellValue(row, idx.form), tab.Name),
		CampaignName: cellValue(row, idx.campaign),
		AdName:       cellValue(row, idx.ad),
		Platform:     cellValue(row, idx.platform),
		Notes:        fmt.Sprintf("Imported from %s", tab.Name),
	}
	return lead, true
}

// resolveName prefers a single full-name column, falling back to
// first+last; a lead with no resolvable name gets the sentinel and is
// dropped by the caller.
func resolveName(row gvizRow, idx fieldIndexes) string {
	if name := cellValue(row, idx.name); name != "" {
		return name
	}
	first := cellValue(row, idx.firstName)
	last := cellValue(row, idx.lastName)
	if joined := strings.TrimSpace(first + " " + last); joined != "" {
		return joined
	}
	return unknownNameSentinel
}

// deriveID picks a stable identifier. Spreadsheet rows move and get deleted,
// so content-derived ids take priority over position: explicit id cell,
// then email, then phone, then the volatile tab+row fallback.
func deriveID(rawID, email, phone string, tab Tab, rowIndex int) string {
	if cleanID := strings.TrimSpace(idPrefixRe.ReplaceAllString(rawID, "")); cleanID != "" {
		return cleanID
	}

	if len(email) > 3 {
		safe := emailSafeRe.ReplaceAllString(strings.ToLower(email), "")
		return "lead_e_" + safe
	}

	if digits := nonDigitRe.ReplaceAllString(phone, ""); len(digits) > 5 {
		return "lead_p_" + digits
	}

	// Volatile: breaks when rows are reordered. Accepted limitation for rows
	// carrying neither usable email nor phone.
	tabIdentifier := tab.GID
	if tabIdentifier == "" {
		tabIdentifier = whitespaceRe.ReplaceAllString(tab.SheetName, "")
	}
	if tabIdentifier == "" {
		tabIdentifier = "unknown"
	}
	return fmt.Sprintf("sheet_%s_row_%d", tabIdentifier, rowIndex)
}

func dedupeByID(leads []domain.Lead) []domain.Lead {
	if len(leads) == 0 {
		return leads
	}

	position := make(map[string]int, len(leads))
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if i, seen := position[l.ID]; seen {
			out[i] = l
			continue
		}
		position[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

var createdLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

func parseCreated(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
