// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// PropagationError reports a field that a record carried into a stage
// but lost on the way out. Stages enrich records; they never strip
// accumulated fields.
// Per prd006-pipeline R3.4.
type PropagationError struct {
	RecordID string
	Field    string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("record %s dropped field %q during stage transition", e.RecordID, e.Field)
}

// VerifyPropagation checks that every record surviving a stage still
// carries the fields it carried before the stage ran. Presence is
// judged on the serialized form, so an explicit null survives as null
// while a silently omitted field is a violation. Records the stage
// filtered out are exempt; fields is the accumulated set of field
// names introduced by stages up to and including the previous one.
func VerifyPropagation(before, after []types.Record, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	prev := make(map[string]map[string]json.RawMessage, len(before))
	for i := range before {
		m, err := marshalFields(&before[i])
		if err != nil {
			return fmt.Errorf("serializing input record %s: %w", before[i].ID, err)
		}
		prev[before[i].ID] = m
	}

	for i := range after {
		in, ok := prev[after[i].ID]
		if !ok {
			// Introduced by the stage itself, nothing to propagate.
			continue
		}
		out, err := marshalFields(&after[i])
		if err != nil {
			return fmt.Errorf("serializing output record %s: %w", after[i].ID, err)
		}
		for _, f := range fields {
			if _, had := in[f]; !had {
				continue
			}
			if _, has := out[f]; !has {
				return &PropagationError{RecordID: after[i].ID, Field: f}
			}
		}
	}
	return nil
}

func marshalFields(r *types.Record) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return recordFields(data)
}
