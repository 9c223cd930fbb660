package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names so messages match the pipeline file.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Validate checks the schema of every pipeline and resolves each backend
// method against the enumeration, so a bad verb fails at load time instead
// of mid-execution.
func Validate(pipelines []Pipeline) error {
	v := getValidator()
	var problems []string
	for i, p := range pipelines {
		if err := v.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("pipelines[%d]: %w", i, err)
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("pipelines[%d].%s: %s", i, fieldPath(fe.Namespace()), describe(fe)))
			}
		}
		for j, b := range p.Backends {
			if strings.TrimSpace(b.Method) == "" {
				continue
			}
			if _, err := ParseMethod(b.Method); err != nil {
				problems = append(problems, fmt.Sprintf("pipelines[%d].backends[%d].method: %v", i, j, err))
			}
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
