package diff

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBatch is returned when a batch file is not a JSON list of
// records.
var ErrMalformedBatch = errors.New("malformed diff batch")

// legacyActions maps action names written by pre-0.1.5 clients to their
// current names.
var legacyActions = map[string]string{
	"push-labels":   NamePushTags,
	"remove-labels": NameRemoveTags,
}

// legacyParams maps, per canonical action, old parameter keys to current
// ones. A legacy key is only renamed when the current key is absent.
var legacyParams = map[string]map[string]string{
	NamePushTags:   {"labels": "tags"},
	NameRemoveTags: {"labels": "tags"},
}

var decoders = map[string]func(json.RawMessage) (Action, error){
	NameOpen:              decodeInto[Open],
	NameClose:             decodeInto[Close],
	NameSetMessage:        decodeInto[SetMessage],
	NamePushTags:          decodeInto[PushTags],
	NameRemoveTags:        decodeInto[RemoveTags],
	NameParameterSet:      decodeInto[ParameterSet],
	NameParameterRemove:   decodeInto[ParameterRemove],
	NamePushMilestones:    decodeInto[PushMilestones],
	NameSetStatus:         decodeInto[SetStatus],
	NameSetProjectTag:     decodeInto[SetProjectTag],
	NameSetProjectName:    decodeInto[SetProjectName],
	NameChainLink:         decodeInto[ChainLink],
	NameChainUnlink:       decodeInto[ChainUnlink],
	NameChainAttach:       decodeInto[ChainAttach],
	NameSetParent:         decodeInto[SetParent],
	NameWorkStart:         decodeInto[WorkStart],
	NameWorkStop:          decodeInto[WorkStop],
	NameTagOpen:           decodeInto[TagOpen],
	NameTagSetProjectName: decodeInto[TagSetProjectName],
	NameOpenIssue:         decodeInto[OpenIssue],
	NameCloseIssue:        decodeInto[CloseIssue],
}

func decodeInto[T Action](params json.RawMessage) (Action, error) {
	var a T
	if len(params) == 0 || string(params) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(params, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// normalize rewrites a record written with legacy names into its current
// form. It is the only place legacy naming is handled.
func normalize(r Record) (Record, error) {
	if name, ok := legacyActions[r.Action]; ok {
		r.Action = name
	}
	renames, ok := legacyParams[r.Action]
	if !ok || len(r.Params) == 0 {
		return r, nil
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return r, err
	}
	changed := false
	for from, to := range renames {
		v, ok := params[from]
		if !ok {
			continue
		}
		if _, exists := params[to]; !exists {
			params[to] = v
		}
		delete(params, from)
		changed = true
	}
	if !changed {
		return r, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return r, err
	}
	r.Params = raw
	return r, nil
}

// Decode converts a record into a Diff. Unknown actions decode to Unknown
// so newer logs can be replayed by older clients.
func Decode(r Record) (Diff, error) {
	r, err := normalize(r)
	if err != nil {
		return Diff{}, fmt.Errorf("action %q: %w", r.Action, err)
	}
	dec, ok := decoders[r.Action]
	if !ok {
		return Diff{
			Action:    Unknown{Name: r.Action, Params: r.Params},
			Author:    r.Author,
			Timestamp: r.Timestamp,
		}, nil
	}
	action, err := dec(r.Params)
	if err != nil {
		return Diff{}, fmt.Errorf("action %q: %w", r.Action, err)
	}
	return Diff{Action: action, Author: r.Author, Timestamp: r.Timestamp}, nil
}

// Encode converts d into its on-disk record.
func Encode(d Diff) (Record, error) {
	r := Record{
		Action:    d.Action.ActionName(),
		Author:    d.Author,
		Timestamp: d.Timestamp,
	}
	if u, ok := d.Action.(Unknown); ok {
		r.Params = u.Params
		return r, nil
	}
	params, err := json.Marshal(d.Action)
	if err != nil {
		return Record{}, fmt.Errorf("encoding %s params: %w", r.Action, err)
	}
	r.Params = params
	return r, nil
}

// DecodeBatch parses a batch file. A batch that is not a list of records
// returns ErrMalformedBatch. Records that parse but carry invalid params
// are dropped and reported in the returned error slice; the remaining
// diffs are still returned.
func DecodeBatch(data []byte) ([]Diff, []error, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}
	diffs := make([]Diff, 0, len(records))
	var recordErrs []error
	for i, r := range records {
		d, err := Decode(r)
		if err != nil {
			recordErrs = append(recordErrs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		diffs = append(diffs, d)
	}
	return diffs, recordErrs, nil
}

// EncodeBatch serialises diffs as one batch file.
func EncodeBatch(diffs []Diff) ([]byte, error) {
	records := make([]Record, 0, len(diffs))
	for _, d := range diffs {
		r, err := Encode(d)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return json.Marshal(records)
}
