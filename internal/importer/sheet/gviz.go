package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// The gviz endpoint wraps its JSON in a JS callback invocation; the payload
// is everything between the parentheses.
var gvizWrapperRe = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\);`)

type gvizCell struct {
	V interface{} `json:"v"`
	F string      `json:"f"`
}

type gvizCol struct {
	Label string `json:"label"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizTable struct {
	Cols []gvizCol `json:"cols"`
	Rows []gvizRow `json:"rows"`
}

type gvizResponse struct {
	Table gvizTable `json:"table"`
}

// tabURL builds the gviz query URL for a tab, preferring GID over sheet name.
func tabURL(baseURL, sheetID string, tab Tab) (string, error) {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case tab.GID != "":
		return fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json&gid=%s", base, sheetID, tab.GID), nil
	case tab.SheetName != "":
		return fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json&sheet=%s", base, sheetID, url.QueryEscape(tab.SheetName)), nil
	default:
		return "", fmt.Errorf("tab %q has neither gid nor sheetName", tab.Name)
	}
}

// fetchTab retrieves and unwraps one tab's table.
func fetchTab(ctx context.Context, client *http.Client, rawURL string) (gvizTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return gvizTable{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return gvizTable{}, fmt.Errorf("fetch tab: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return gvizTable{}, fmt.Errorf("fetch tab: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gvizTable{}, fmt.Errorf("read tab response: %w", err)
	}

	return parseGviz(raw)
}

func parseGviz(raw []byte) (gvizTable, error) {
	m := gvizWrapperRe.FindSubmatch(raw)
	if m == nil {
		return gvizTable{}, fmt.Errorf("response is not a gviz payload")
	}

	var decoded gvizResponse
	if err := json.Unmarshal(m[1], &decoded); err != nil {
		return gvizTable{}, fmt.Errorf("decode gviz payload: %w", err)
	}
	return decoded.Table, nil
}

// cellValue renders a cell as trimmed text, preferring the raw value over
// the formatted one. Missing cells and out-of-range columns yield "".
func cellValue(row gvizRow, col int) string {
	if col < 0 || col >= len(row.C) || row.C[col] == nil {
		return ""
	}
	cell := row.C[col]

	switch v := cell.V.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	return strings.TrimSpace(cell.F)
}
