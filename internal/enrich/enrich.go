// Package enrich implements the lookup-enrichment delivery flow.
//
// Instead of shipping the raw file, the stabilized TSV is parsed into rows,
// the distinct part numbers are resolved against a lookup endpoint in
// chunks, and the merged rows are posted as form data. Rows whose parts have
// no lookup data are still posted with empty enrichment fields.
package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"fileferry/internal/config"
	"fileferry/internal/errors"
)

// Row is one delivery line, optionally enriched with lookup data.
type Row struct {
	Plant    string `json:"plant"`
	Delivery string `json:"delivery"`
	PartNo   string `json:"part_no"`
	DUNS     string `json:"duns"`
	COF      string `json:"cof"`
	Country  string `json:"country"`
	Shipment string `json:"shipment"`
}

// LookupData is the per-part payload returned by the lookup endpoint.
type LookupData struct {
	DUNS    string `json:"duns"`
	COF     string `json:"cof"`
	Country string `json:"country"`
}

// Enricher drives the lookup flow.
type Enricher struct {
	http *http.Client
	cfg  config.LookupConfig
	log  *logrus.Logger
}

// New creates an Enricher.
func New(cfg config.LookupConfig, log *logrus.Logger) *Enricher {
	return &Enricher{
		http: &http.Client{Timeout: cfg.Timeout()},
		cfg:  cfg,
		log:  log,
	}
}

// ParseTSV extracts delivery rows from raw report text. The header row is
// located by token scan (any line mentioning plant, delivery, and material);
// everything before it is report preamble. The part number is the last
// non-empty column's first whitespace-separated token, tolerating the
// producer's doubled tabs and padded cells.
func (e *Enricher) ParseTSV(raw []byte) []Row {
	var rows []Row
	seenHeader := false

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !seenHeader {
			lc := strings.ToLower(trimmed)
			if strings.Contains(lc, "plant") && strings.Contains(lc, "delivery") && strings.Contains(lc, "material") {
				seenHeader = true
			}
			continue
		}

		cols := strings.Split(trimmed, "\t")
		if len(cols) < 3 {
			continue
		}
		plant := strings.TrimSpace(cols[0])
		delivery := strings.TrimSpace(cols[1])

		var partNo string
		for i := len(cols) - 1; i >= 2; i-- {
			col := strings.TrimSpace(cols[i])
			if col == "" {
				continue
			}
			fields := strings.Fields(col)
			if len(fields) > 0 {
				partNo = fields[0]
			}
			break
		}

		if plant == "" && delivery == "" && partNo == "" {
			continue
		}
		rows = append(rows, Row{Plant: plant, Delivery: delivery, PartNo: partNo})
	}

	return rows
}

// DistinctParts returns the unique non-empty part numbers in first-seen
// order.
func DistinctParts(rows []Row) []string {
	seen := make(map[string]struct{})
	var parts []string
	for _, row := range rows {
		p := strings.TrimSpace(row.PartNo)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		parts = append(parts, p)
	}
	return parts
}

// Lookup resolves parts against the lookup endpoint, chunked by the
// configured size.
func (e *Enricher) Lookup(ctx context.Context, parts []string) (map[string]LookupData, error) {
	all := make(map[string]LookupData)
	size := e.cfg.ChunkSize
	for start := 0; start < len(parts); start += size {
		end := start + size
		if end > len(parts) {
			end = len(parts)
		}
		chunk, err := e.lookupChunk(ctx, parts[start:end])
		if err != nil {
			return nil, err
		}
		for k, v := range chunk {
			all[k] = v
		}
	}
	return all, nil
}

func (e *Enricher) lookupChunk(ctx context.Context, parts []string) (map[string]LookupData, error) {
	reqURL := e.cfg.URL + url.QueryEscape(strings.Join(parts, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ELookupFailed, "failed to build lookup request", err)
	}
	if e.cfg.Cookie != "" {
		req.Header.Set("Cookie", e.cfg.Cookie)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ELookupFailed, "lookup request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ELookupFailed, "failed to read lookup response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewWithDetails(errors.ELookupFailed, "lookup endpoint returned non-success status",
			map[string]string{"status": resp.Status})
	}

	return parseLookupResponse(body)
}

// parseLookupResponse accepts either a part->data JSON object or an array of
// objects carrying a part identifier.
func parseLookupResponse(body []byte) (map[string]LookupData, error) {
	var asMap map[string]LookupData
	if err := json.Unmarshal(body, &asMap); err == nil {
		return asMap, nil
	}

	var asArray []map[string]any
	if err := json.Unmarshal(body, &asArray); err != nil {
		return nil, errors.Wrap(errors.ELookupFailed, "lookup response is neither a JSON object nor an array", err)
	}

	out := make(map[string]LookupData, len(asArray))
	for _, item := range asArray {
		part := firstString(item, "part", "part_no", "material")
		if part == "" {
			continue
		}
		out[part] = LookupData{
			DUNS:    stringField(item, "duns"),
			COF:     stringField(item, "cof"),
			Country: stringField(item, "country"),
		}
	}
	return out, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Merge copies lookup data into matching rows. Rows without a match are left
// unenriched.
func Merge(rows []Row, data map[string]LookupData) []Row {
	for i := range rows {
		if d, ok := data[rows[i].PartNo]; ok {
			rows[i].DUNS = d.DUNS
			rows[i].COF = d.COF
			rows[i].Country = d.Country
		}
	}
	return rows
}

// Post delivers the enriched rows as form data to the configured post
// endpoint.
func (e *Enricher) Post(ctx context.Context, rows []Row) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(errors.EPostFailed, "failed to serialize enriched rows", err)
	}

	form := url.Values{}
	form.Set("tableData", string(payload))
	form.Set("save", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.PostURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(errors.EPostFailed, "failed to build post request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.cfg.Cookie != "" {
		req.Header.Set("Cookie", e.cfg.Cookie)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.EPostFailed, "post request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewWithDetails(errors.EPostFailed, "post endpoint returned non-success status",
			map[string]string{"status": resp.Status})
	}

	e.log.WithField("rows", len(rows)).Info("posted enriched rows")
	return nil
}

// EnrichFile runs parse -> distinct -> lookup -> merge for raw file bytes.
func (e *Enricher) EnrichFile(ctx context.Context, raw []byte) ([]Row, error) {
	rows := e.ParseTSV(raw)
	if len(rows) == 0 {
		e.log.Warn("no delivery rows found in file")
		return rows, nil
	}

	parts := DistinctParts(rows)
	e.log.WithFields(logrus.Fields{"rows": len(rows), "parts": len(parts)}).Info("parsed delivery rows")
	if len(parts) == 0 {
		return rows, nil
	}

	data, err := e.Lookup(ctx, parts)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		e.log.Info("lookup returned no data; posting rows unenriched")
	}
	return Merge(rows, data), nil
}
