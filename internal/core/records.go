package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var flagKeys = map[string]bool{"reimbursed": true, "paid": true}

// DecodeBatch converts loosely typed records, keyed by field name, into typed
// entities of t. The result is a Snapshot holding only the decoded collection.
// Any record that cannot be decoded fails the whole batch; unknown keys are
// rejected rather than dropped.
func DecodeBatch(t EntityType, records []map[string]any) (Snapshot, error) {
	var out Snapshot
	for i, rec := range records {
		b, err := json.Marshal(normalizeRecord(rec))
		if err != nil {
			return Snapshot{}, fmt.Errorf("record %d: encode: %w", i+1, err)
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()

		switch t {
		case CaseFiles:
			var v CaseFile
			err = dec.Decode(&v)
			out.CaseFiles = append(out.CaseFiles, v)
		case CaseExpenses:
			var v CaseExpense
			err = dec.Decode(&v)
			out.CaseExpenses = append(out.CaseExpenses, v)
		case InstitutionEngagements:
			var v InstitutionEngagement
			err = dec.Decode(&v)
			out.InstitutionEngagements = append(out.InstitutionEngagements, v)
		case InstitutionExpenses:
			var v InstitutionExpense
			err = dec.Decode(&v)
			out.InstitutionExpenses = append(out.InstitutionExpenses, v)
		case OfficeExpenses:
			var v OfficeExpense
			err = dec.Decode(&v)
			out.OfficeExpenses = append(out.OfficeExpenses, v)
		default:
			return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownEntity, t)
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return out, nil
}

// normalizeRecord maps blank strings to null and textual flags to booleans so
// that spreadsheet cells decode into the typed fields.
func normalizeRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			out[k] = nil
		case flagKeys[k]:
			if b, err := strconv.ParseBool(s); err == nil {
				out[k] = b
			} else {
				out[k] = s
			}
		default:
			out[k] = s
		}
	}
	return out
}
