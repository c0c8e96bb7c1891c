// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_leads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/callwiseai/pkg/commons"
)

// ErrOutOfRange is returned when a 1-based lead index does not resolve to a
// row in the loaded list.
var ErrOutOfRange = errors.New("lead index out of range")

// Lead is one row of the imported prospect list. Rows are immutable for the
// lifetime of the process; the dialer session keeps its own snapshot anyway so
// a future hot-reload cannot change an in-flight call.
type Lead struct {
	ProspectName string `json:"prospect_name"`
	ResourceName string `json:"resource_name"`
	JobTitle     string `json:"job_title"`
	CompanyName  string `json:"company_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Timezone     string `json:"timezone"`
}

// Source is the read-only lead list the session controller dials from.
// Indexes are 1-based to match the dashboard's numbering.
type Source interface {
	Get(index int) (*Lead, error)
	Count() int
}

type staticSource struct {
	leads []Lead
}

// NewStaticSource wraps an in-memory lead list. Used by tests and seeds.
func NewStaticSource(leads []Lead) Source {
	return &staticSource{leads: leads}
}

func (s *staticSource) Get(index int) (*Lead, error) {
	if index < 1 || index > len(s.leads) {
		return nil, fmt.Errorf("lead %d: %w", index, ErrOutOfRange)
	}
	lead := s.leads[index-1]
	return &lead, nil
}

func (s *staticSource) Count() int {
	return len(s.leads)
}

// NewCSVSource loads the lead list from a CSV export. The first row must be a
// header; columns are matched by name so the dashboard can reorder them.
// Malformed rows are skipped with a warning rather than failing the import.
func NewCSVSource(logger commons.Logger, path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open leads file %s: %w", path, err)
	}
	defer f.Close()

	leads, err := parseCSV(logger, f)
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded %d leads from %s", len(leads), path)
	return NewStaticSource(leads), nil
}

func parseCSV(logger commons.Logger, r io.Reader) ([]Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read leads header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["phone"]; !ok {
		return nil, errors.New("leads file has no phone column")
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var leads []Lead
	line := 1
	for {
		row, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warnf("skipping malformed lead row at line %d: %v", line, err)
			continue
		}
		lead := Lead{
			ProspectName: field(row, "prospect_name"),
			ResourceName: field(row, "resource_name"),
			JobTitle:     field(row, "job_title"),
			CompanyName:  field(row, "company_name"),
			Email:        field(row, "email"),
			Phone:        field(row, "phone"),
			Timezone:     field(row, "timezone"),
		}
		if lead.Phone == "" {
			logger.Warnf("skipping lead row at line %d: empty phone", line)
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
