package tracker

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/storage"
)

const (
	csvHeader     = "timestamp;project;description"
	csvTimeLayout = "2006-01-02T15:04:05.000Z"
)

// ExportCSV writes every stored punch as "timestamp;project;description".
// Timestamps are UTC with milliseconds; descriptions are percent-encoded so
// they never contain the separator or quotes.
func (t *Tracker) ExportCSV(ctx context.Context, w io.Writer) error {
	t.mu.Lock()
	punches, err := t.store.GetAll(ctx)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, csvHeader)
	for _, p := range punches {
		fmt.Fprintf(bw, "%s;\"%s\";\"%s\"\n",
			p.Key.UTC().Format(csvTimeLayout),
			strings.ReplaceAll(p.Project, `"`, `""`),
			encodeURIComponent(p.Description))
	}
	return bw.Flush()
}

// ImportResult counts the rows handled by ImportCSV.
type ImportResult struct {
	Added   int
	Skipped int
}

// ImportCSV reads the format written by ExportCSV. Rows whose timestamp is
// already stored are skipped.
func (t *Tracker) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	punches, err := parseCSV(r)
	if err != nil {
		return res, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range punches {
		err := t.store.Add(ctx, p)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			res.Skipped++
		case err != nil:
			return res, err
		default:
			res.Added++
		}
	}
	t.log.Debug("csv imported", "added", res.Added, "skipped", res.Skipped)
	return res, t.load(ctx)
}

// missingDescription is what older exports wrote for punches without a
// description.
const missingDescription = "undefined"

func parseCSV(r io.Reader) ([]model.Punch, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 3
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	var punches []model.Punch
	for i, rec := range records {
		if i == 0 && rec[0] == "timestamp" {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid timestamp %q", i+1, rec[0])
		}
		project := strings.TrimSpace(rec[1])
		if project == "" {
			return nil, fmt.Errorf("csv line %d: empty project", i+1)
		}
		desc, err := url.PathUnescape(rec[2])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid description: %w", i+1, err)
		}
		if desc == missingDescription {
			desc = ""
		}
		punches = append(punches, model.Punch{Key: ts, Timestamp: ts, Project: project, Description: desc})
	}
	return punches, nil
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedURIChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreservedURIChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
