// Package validate checks the synthesis collaborator's JSON against the
// closed IRAC schema. It repairs nothing: any missing field, unknown
// field, wrong type, or invalid role yields a domain.SchemaError naming
// the violating path, and the caller decides what to do.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iracify/iracify/internal/domain"
)

// Result parses and validates a full IRAC synthesis response.
func Result(raw []byte) (domain.IracResult, error) {
	top, err := strictObject(raw, "$")
	if err != nil {
		return domain.IracResult{}, err
	}
	if err := exactFields(top, "$", "issue", "rule", "application", "conclusion", "blocks", "sources"); err != nil {
		return domain.IracResult{}, err
	}

	var res domain.IracResult
	if res.Issue, err = stringField(top, "$", "issue"); err != nil {
		return domain.IracResult{}, err
	}
	if res.Rule, err = stringField(top, "$", "rule"); err != nil {
		return domain.IracResult{}, err
	}
	if res.Application, err = stringField(top, "$", "application"); err != nil {
		return domain.IracResult{}, err
	}
	if res.Conclusion, err = stringField(top, "$", "conclusion"); err != nil {
		return domain.IracResult{}, err
	}
	if res.Sources, err = stringSliceField(top, "$", "sources"); err != nil {
		return domain.IracResult{}, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(top["blocks"], &items); err != nil {
		return domain.IracResult{}, domain.NewSchemaError("$.blocks", "expected array: %v", err)
	}
	if items == nil {
		return domain.IracResult{}, domain.NewSchemaError("$.blocks", "expected array, got null")
	}
	res.Blocks = make([]domain.AnnotatedBlock, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("$.blocks[%d]", i)
		block, err := annotatedBlock(item, path)
		if err != nil {
			return domain.IracResult{}, err
		}
		res.Blocks = append(res.Blocks, block)
	}
	return res, nil
}

// Gist parses and validates an essence-summary response.
func Gist(raw []byte) (domain.Gist, error) {
	top, err := strictObject(raw, "$")
	if err != nil {
		return domain.Gist{}, err
	}
	if err := exactFields(top, "$", "essence", "key_points"); err != nil {
		return domain.Gist{}, err
	}
	var g domain.Gist
	if g.Essence, err = stringField(top, "$", "essence"); err != nil {
		return domain.Gist{}, err
	}
	if g.KeyPoints, err = stringSliceField(top, "$", "key_points"); err != nil {
		return domain.Gist{}, err
	}
	return g, nil
}

func annotatedBlock(raw json.RawMessage, path string) (domain.AnnotatedBlock, error) {
	obj, err := strictObject(raw, path)
	if err != nil {
		return domain.AnnotatedBlock{}, err
	}
	if err := exactFields(obj, path, "ro_number", "role", "quote", "summary", "citations"); err != nil {
		return domain.AnnotatedBlock{}, err
	}

	var b domain.AnnotatedBlock
	if b.RONumber, err = stringField(obj, path, "ro_number"); err != nil {
		return domain.AnnotatedBlock{}, err
	}
	roleStr, err := stringField(obj, path, "role")
	if err != nil {
		return domain.AnnotatedBlock{}, err
	}
	b.Role = domain.Role(roleStr)
	if !b.Role.Valid() {
		return domain.AnnotatedBlock{}, domain.NewSchemaError(path+".role", "invalid role value %q", roleStr)
	}
	if b.Quote, err = stringField(obj, path, "quote"); err != nil {
		return domain.AnnotatedBlock{}, err
	}
	if b.Summary, err = stringField(obj, path, "summary"); err != nil {
		return domain.AnnotatedBlock{}, err
	}
	if b.Citations, err = stringSliceField(obj, path, "citations"); err != nil {
		return domain.AnnotatedBlock{}, err
	}
	return b, nil
}

func strictObject(raw []byte, path string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, domain.NewSchemaError(path, "expected object: %v", err)
	}
	if obj == nil {
		return nil, domain.NewSchemaError(path, "expected object, got null")
	}
	return obj, nil
}

// exactFields enforces the closed field set: every required field present,
// no additional fields permitted.
func exactFields(obj map[string]json.RawMessage, path string, required ...string) error {
	want := make(map[string]struct{}, len(required))
	for _, f := range required {
		want[f] = struct{}{}
		if _, ok := obj[f]; !ok {
			return domain.NewSchemaError(path+"."+f, "required field missing")
		}
	}
	var extras []string
	for f := range obj {
		if _, ok := want[f]; !ok {
			extras = append(extras, f)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		return domain.NewSchemaError(path+"."+extras[0], "unexpected field")
	}
	return nil
}

func stringField(obj map[string]json.RawMessage, path, field string) (string, error) {
	var s string
	if err := json.Unmarshal(obj[field], &s); err != nil {
		return "", domain.NewSchemaError(path+"."+field, "expected string: %v", err)
	}
	return s, nil
}

func stringSliceField(obj map[string]json.RawMessage, path, field string) ([]string, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(obj[field], &raws); err != nil {
		return nil, domain.NewSchemaError(path+"."+field, "expected array: %v", err)
	}
	if raws == nil {
		return nil, domain.NewSchemaError(path+"."+field, "expected array, got null")
	}
	out := make([]string, 0, len(raws))
	for i, r := range raws {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, domain.NewSchemaError(fmt.Sprintf("%s.%s[%d]", path, field, i), "expected string: %v", err)
		}
		out = append(out, s)
	}
	return out, nil
}
