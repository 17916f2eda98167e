package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/grovetools/dqm/errors"
)

// DataType is the declared type of a check parameter or result field.
type DataType string

const (
	DataTypeString   DataType = "str"
	DataTypeList     DataType = "list"
	DataTypeBoolean  DataType = "boolean"
	DataTypeDate     DataType = "date"
	DataTypeDatetime DataType = "datetime"
	DataTypeInt      DataType = "int"
)

// GaLevel is the level of the GA hierarchy a check operates on.
type GaLevel string

const (
	GaLevelAccount  GaLevel = "account"
	GaLevelProperty GaLevel = "property"
	GaLevelView     GaLevel = "view"
)

// Parameter describes one input of a check type. Delegated parameters are
// filled by the backend from the suite's GA scope at run time.
type Parameter struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	DataType DataType `json:"data_type"`
	Default  Value    `json:"default"`
	Delegate bool     `json:"delegate"`
}

// ResultField describes one column of a check's result payload.
type ResultField struct {
	DataType DataType `json:"data_type"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
}

// CheckMetadata is a catalog entry describing a check type.
type CheckMetadata struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Theme        string        `json:"theme"`
	Platform     string        `json:"platform"`
	GaLevel      GaLevel       `json:"ga_level"`
	Parameters   []Parameter   `json:"parameters"`
	ResultFields []ResultField `json:"resultFields"`
}

// Parameter returns the declared parameter with the given name.
func (m CheckMetadata) Parameter(name string) (Parameter, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// FindCheckMetadata returns the catalog entry for a check type name.
func FindCheckMetadata(catalog []CheckMetadata, name string) (CheckMetadata, bool) {
	for _, m := range catalog {
		if m.Name == name {
			return m, true
		}
	}
	return CheckMetadata{}, false
}

// Check is one configured instance of a check type within a suite.
type Check struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Active        bool             `json:"active"`
	Comments      string           `json:"comments"`
	CheckMetadata CheckMetadata    `json:"checkMetadata"`
	ParamValues   map[string]Value `json:"paramValues"`
}

// UnmarshalJSON accepts checkMetadata either as an object or as the
// one-element list embedded in suite payloads.
func (c *Check) UnmarshalJSON(data []byte) error {
	type plain Check
	var raw struct {
		plain
		CheckMetadata json.RawMessage `json:"checkMetadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Check(raw.plain)
	c.CheckMetadata = CheckMetadata{}

	meta := bytes.TrimSpace(raw.CheckMetadata)
	switch {
	case len(meta) == 0 || bytes.Equal(meta, []byte("null")):
	case meta[0] == '[':
		var list []CheckMetadata
		if err := json.Unmarshal(meta, &list); err != nil {
			return fmt.Errorf("decode checkMetadata: %w", err)
		}
		if len(list) > 0 {
			c.CheckMetadata = list[0]
		}
	default:
		if err := json.Unmarshal(meta, &c.CheckMetadata); err != nil {
			return fmt.Errorf("decode checkMetadata: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Check) Clone() Check {
	out := c
	out.ParamValues = CloneValues(c.ParamValues)
	if c.CheckMetadata.Parameters != nil {
		out.CheckMetadata.Parameters = make([]Parameter, len(c.CheckMetadata.Parameters))
		for i, p := range c.CheckMetadata.Parameters {
			p.Default = p.Default.Clone()
			out.CheckMetadata.Parameters[i] = p
		}
	}
	if c.CheckMetadata.ResultFields != nil {
		out.CheckMetadata.ResultFields = append([]ResultField{}, c.CheckMetadata.ResultFields...)
	}
	return out
}

// now is replaced in tests.
var now = time.Now

// blankValue is what an empty form field stands for when the parameter has
// no default. It is null for ints, which have none.
func blankValue(dt DataType) Value {
	switch dt {
	case DataTypeString:
		return String("")
	case DataTypeList:
		return Strings()
	case DataTypeBoolean:
		return Bool(false)
	case DataTypeDate:
		t := now()
		return DateValue(NewDate(t.Year(), t.Month(), t.Day()))
	case DataTypeDatetime:
		return Datetime(now())
	}
	return Null()
}

// ValidateParams checks a parameter map against the declared parameters of a
// check type and returns the map with every value cast to its declared type.
// Missing values fall back to the parameter default. An empty string with no
// default becomes the blank value of the type. Delegated parameters may stay
// null since the backend fills them from the GA scope.
func ValidateParams(meta CheckMetadata, values map[string]Value) (map[string]Value, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := meta.Parameter(name); !ok {
			return nil, errors.InvalidParam(meta.Name, name, "unknown parameter")
		}
	}

	out := make(map[string]Value, len(meta.Parameters))
	for _, p := range meta.Parameters {
		in := values[p.Name]
		v, err := in.Coerce(p.DataType)
		if err != nil {
			return nil, errors.InvalidParam(meta.Name, p.Name, err.Error())
		}
		if v.IsNull() {
			if v, err = p.Default.Coerce(p.DataType); err != nil {
				return nil, errors.InvalidParam(meta.Name, p.Name, "bad default: "+err.Error())
			}
		}
		if s, ok := in.Str(); ok && s == "" && v.IsNull() {
			v = blankValue(p.DataType)
		}
		if v.IsNull() && !p.Delegate {
			return nil, errors.InvalidParam(meta.Name, p.Name, "missing value")
		}
		out[p.Name] = v
	}
	return out, nil
}
