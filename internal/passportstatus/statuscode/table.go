// Package statuscode loads the status-code reference table and resolves codes
// between their record id, symbolic code and upstream business code.
package statuscode

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"passport-status/internal/passportstatus/models"
)

// Unknown is the symbolic code used when an upstream value cannot be mapped.
const Unknown = "UNKNOWN"

//go:embed codes.yaml
var embeddedCodes []byte

type tableFile struct {
	Codes []models.StatusCode `yaml:"codes"`
}

// Table is an immutable, bidirectional index over the status codes.
type Table struct {
	codes          []models.StatusCode
	byID           map[string]models.StatusCode
	byCode         map[string]models.StatusCode
	byBusinessCode map[string]models.StatusCode
}

// LoadEmbedded parses the table compiled into the binary.
func LoadEmbedded() (*Table, error) {
	return Parse(embeddedCodes)
}

// LoadFile parses a table from disk, falling back to the embedded table for an empty path.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return LoadEmbedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status codes %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Table from YAML. Duplicate ids, codes or business codes are rejected.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse status codes: %w", err)
	}
	return New(f.Codes)
}

// New indexes codes.
func New(codes []models.StatusCode) (*Table, error) {
	t := &Table{
		codes:          make([]models.StatusCode, 0, len(codes)),
		byID:           make(map[string]models.StatusCode, len(codes)),
		byCode:         make(map[string]models.StatusCode, len(codes)),
		byBusinessCode: make(map[string]models.StatusCode, len(codes)),
	}
	for _, c := range codes {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.ID == "" || c.Code == "" {
			return nil, fmt.Errorf("status code entry requires id and code: %+v", c)
		}
		if _, dup := t.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate status code id %q", c.ID)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate status code %q", c.Code)
		}
		if c.BusinessCode != "" {
			if _, dup := t.byBusinessCode[c.BusinessCode]; dup {
				return nil, fmt.Errorf("duplicate business code %q", c.BusinessCode)
			}
			t.byBusinessCode[c.BusinessCode] = c
		}
		t.byID[c.ID] = c
		t.byCode[c.Code] = c
		t.codes = append(t.codes, c)
	}
	return t, nil
}

// ByID resolves a record's StatusCodeID.
func (t *Table) ByID(id string) (models.StatusCode, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// ByCode resolves a symbolic code such as FILE_PROCESSED.
func (t *Table) ByCode(code string) (models.StatusCode, bool) {
	c, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// ByBusinessCode resolves an upstream business code.
func (t *Table) ByBusinessCode(businessCode string) (models.StatusCode, bool) {
	c, ok := t.byBusinessCode[strings.TrimSpace(businessCode)]
	return c, ok
}

// ResolveBusinessCode maps an upstream code, falling back to Unknown.
// ok is false when the fallback was used.
func (t *Table) ResolveBusinessCode(businessCode string) (code models.StatusCode, ok bool) {
	if c, found := t.ByBusinessCode(businessCode); found {
		return c, true
	}
	c, _ := t.ByCode(Unknown)
	return c, false
}

// All returns the codes in file order.
func (t *Table) All() []models.StatusCode {
	out := make([]models.StatusCode, len(t.codes))
	copy(out, t.codes)
	return out
}
