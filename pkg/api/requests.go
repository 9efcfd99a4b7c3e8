package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

// FlexString accepts a JSON string or number and keeps its text.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil || n == "" {
		return fmt.Errorf("expected a string or number, got %s", b)
	}
	*f = FlexString(n.String())
	return nil
}

// DependencyList is a list of task ids that remembers an explicit null, which
// the request schema rejects.
type DependencyList struct {
	IDs  []FlexString
	Null bool
}

func (d *DependencyList) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*d = DependencyList{Null: true}
		return nil
	}
	d.Null = false
	return json.Unmarshal(b, &d.IDs)
}

// TaskPayload is the wire schema of one task. Pointer fields distinguish an
// absent or null value from a zero.
type TaskPayload struct {
	ID             *FlexString    `json:"id"`
	Title          *FlexString    `json:"title"`
	DueDate        *string        `json:"due_date"`
	EstimatedHours *float64       `json:"estimated_hours" binding:"omitempty,gte=0"`
	Importance     *float64       `json:"importance" binding:"omitempty,gte=0,lte=10"`
	Dependencies   DependencyList `json:"dependencies"`
}

// Raw converts the payload into the loosely typed record the scoring engine
// consumes. Absent and null fields are left out.
func (p TaskPayload) Raw() model.RawTask {
	raw := model.RawTask{}
	if p.ID != nil {
		raw["id"] = string(*p.ID)
	}
	if p.Title != nil {
		raw["title"] = string(*p.Title)
	}
	if p.DueDate != nil {
		raw["due_date"] = *p.DueDate
	}
	if p.EstimatedHours != nil {
		raw["estimated_hours"] = *p.EstimatedHours
	}
	if p.Importance != nil {
		raw["importance"] = *p.Importance
	}
	if p.Dependencies.IDs != nil {
		deps := make([]string, len(p.Dependencies.IDs))
		for i, d := range p.Dependencies.IDs {
			deps[i] = string(d)
		}
		raw["dependencies"] = deps
	}
	return raw
}

func rawTasks(payloads []TaskPayload) []model.RawTask {
	raw := make([]model.RawTask, len(payloads))
	for i, p := range payloads {
		raw[i] = p.Raw()
	}
	return raw
}

type AnalyzeRequest struct {
	Tasks           []TaskPayload      `json:"tasks" binding:"required,min=1,dive"`
	Strategy        string             `json:"strategy" binding:"omitempty,strategy"`
	WeightOverrides map[string]float64 `json:"weight_overrides" binding:"omitempty,dive,keys,factor,endkeys"`
}

type SuggestRequest struct {
	Tasks    []TaskPayload `json:"tasks"`
	Strategy string        `json:"strategy"`
}

// taskList validates a batch on its own, for the suggest endpoints.
type taskList struct {
	Tasks []TaskPayload `json:"tasks" binding:"dive"`
}

var registerOnce sync.Once

// registerValidations adds the strategy and factor rules to gin's validator
// and makes error namespaces use JSON field names.
func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
			return scoring.Strategy(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("factor", func(fl validator.FieldLevel) bool {
			return scoring.ValidFactor(fl.Field().String())
		})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			p := sl.Current().Interface().(TaskPayload)
			if p.Dependencies.Null {
				sl.ReportError(p.Dependencies, "dependencies", "Dependencies", "notnull", "")
			}
		}, TaskPayload{})
	})
}

// errorDetails flattens a binding error into field -> message pairs.
func errorDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = describe(fe)
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notnull":
		return "this field may not be null"
	case "min":
		return "must not be empty"
	case "strategy":
		return fmt.Sprintf("%q is not a valid choice", fe.Value())
	case "factor":
		return fmt.Sprintf("invalid weight key %q, valid keys are urgency, importance, effort, dependency", fe.Value())
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
