// Package schema checks form definitions before they are published or
// imported, and loads them from YAML or JSON files.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/rules"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check reports every problem in form as a single aggregated error, or nil.
func Check(form *model.Form) error {
	var result *multierror.Error

	if err := validate.Struct(form); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result = multierror.Append(result, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	ids := map[string]bool{}
	for _, f := range form.Fields {
		name := f.ID
		if name == "" {
			name = f.Label
		}

		if f.ID != "" {
			if ids[f.ID] {
				result = multierror.Append(result, fmt.Errorf("field %q: duplicate id", f.ID))
			}
			ids[f.ID] = true
		}

		if f.Type.HasOptions() && len(f.Options) == 0 {
			result = multierror.Append(result, fmt.Errorf("field %q: %s needs options", name, f.Type))
		}
		values := map[string]bool{}
		for _, o := range f.Options {
			if values[o.Value] {
				result = multierror.Append(result, fmt.Errorf("field %q: duplicate option %q", name, o.Value))
			}
			values[o.Value] = true
		}

		if !f.IsScreener && f.ScreenerLogic != nil {
			result = multierror.Append(result, fmt.Errorf("field %q: screener logic on a field that is not a screener", name))
		}
		if v := f.Validation; v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			result = multierror.Append(result, fmt.Errorf("field %q: min is greater than max", name))
		}
	}

	for _, p := range rules.Check(form.Fields) {
		result = multierror.Append(result, p)
	}

	return result.ErrorOrNil()
}

// Load reads a form from a .yaml, .yml or .json file. When no field sets an
// order index, fields are ordered as written.
func Load(path string) (*model.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	form := &model.Form{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, form)
	case ".json":
		err = json.Unmarshal(data, form)
	default:
		return nil, fmt.Errorf("%s: unsupported schema format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ordered := false
	for _, f := range form.Fields {
		if f.OrderIndex != 0 {
			ordered = true
			break
		}
	}
	if !ordered {
		for i := range form.Fields {
			form.Fields[i].OrderIndex = i
		}
	}

	return form, nil
}
