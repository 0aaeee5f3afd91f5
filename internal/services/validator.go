package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/documentextraction/internal/schema"
)

// ValidationStatus is the outcome of checking a model answer.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
)

// ExtractionResult holds the coerced property values of one answer.
type ExtractionResult struct {
	Values map[string]interface{}
	Status ValidationStatus
	// Dropped lists answer keys that are not schema properties.
	Dropped []string
	// Unresolved lists optional properties whose answer was null or unusable.
	Unresolved []string
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Validator checks model answers against the property definitions.
type Validator struct {
	def *schema.Definition
}

func NewValidator(def *schema.Definition) *Validator {
	return &Validator{def: def}
}

// Validate parses the raw answer and coerces each property to its storage
// representation. Any unresolved required property yields a *ValidationError
// naming all of them.
func (v *Validator) Validate(raw string) (*ExtractionResult, error) {
	answer, err := parseAnswer(raw)
	if err != nil {
		return &ExtractionResult{Status: StatusInvalid}, &ValidationError{Missing: v.def.Required(), Cause: err}
	}

	res := &ExtractionResult{
		Values: make(map[string]interface{}, v.def.Len()),
		Status: StatusValid,
	}
	var missing []string
	for _, p := range v.def.Properties() {
		value, ok := coerce(p.Type, answer[p.Name])
		if !ok {
			if p.Required {
				missing = append(missing, p.Name)
			} else if answer[p.Name] != nil {
				res.Unresolved = append(res.Unresolved, p.Name)
			}
			continue
		}
		res.Values[p.Name] = value
	}
	for name := range answer {
		if _, ok := v.def.Lookup(name); !ok {
			res.Dropped = append(res.Dropped, name)
		}
	}
	sort.Strings(res.Dropped)

	if len(missing) > 0 {
		res.Status = StatusInvalid
		return res, &ValidationError{Missing: missing}
	}
	if err := v.def.CheckValues(res.Values); err != nil {
		res.Status = StatusInvalid
		return res, &ValidationError{Cause: err}
	}
	return res, nil
}

// parseAnswer extracts the JSON object from the model text. The answer is
// tried as-is first; only then are code fences stripped and, failing that,
// the outermost {...} span is tried.
func parseAnswer(raw string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("model answer is empty")
	}
	answer, err := decodeObject(trimmed)
	if err == nil {
		return answer, nil
	}

	text := stripCodeFence(trimmed)
	if text == "" {
		return nil, errors.New("model answer is empty")
	}
	if text != trimmed {
		if answer, err = decodeObject(text); err == nil {
			return answer, nil
		}
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if answer, spanErr := decodeObject(text[start : end+1]); spanErr == nil {
			return answer, nil
		}
	}

	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return nil, fmt.Errorf("model declined to answer: %q", truncate(text, 200))
		}
	}
	return nil, fmt.Errorf("model answer is not a JSON object: %w", err)
}

// stripCodeFence returns the content of the first ``` block, if any.
func stripCodeFence(text string) string {
	for _, fence := range []string{"```json", "```JSON", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		body := text[start+len(fence):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return text
}

// decodeObject decodes a single JSON object. A one-element array wrapping
// an object is accepted too.
func decodeObject(text string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	switch t := v.(type) {
	case map[string]interface{}:
		return t, nil
	case []interface{}:
		if len(t) == 1 {
			if m, ok := t[0].(map[string]interface{}); ok {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("expected a JSON object, got %T", v)
}

// coerce converts an answer value into the storage representation of t.
// ok is false when the value is null, blank or cannot be converted.
func coerce(t schema.Type, v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	switch t {
	case schema.TypeNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		return f, true
	case schema.TypeInteger:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, false
		}
		if n, isNum := v.(json.Number); isNum {
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		}
		return int64(f), true
	case schema.TypeBoolean:
		return toBooleanString(v)
	default:
		return toString(v)
	}
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if groupedNumber.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBooleanString(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		switch t.String() {
		case "1":
			return "true", true
		case "0":
			return "false", true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return "true", true
		case "false", "no", "n", "0":
			return "false", true
		}
	}
	return nil, false
}

func toString(v interface{}) (interface{}, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return nil, false
		}
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return nil, false
		}
		s = strings.TrimSpace(buf.String())
	}
	if s == "" {
		return nil, false
	}
	return s, true
}

// truncate shortens s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
