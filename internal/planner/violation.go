package planner

import "fmt"

// ViolationKind tags which documented planning failure a Violation
// reports (spec §4.G "Errors: ValidationError{ValueRequired | EnumInvalid
// | UnknownField | TypeMismatch}").
type ViolationKind string

const (
	ValueRequired ViolationKind = "ValueRequired"
	EnumInvalid   ViolationKind = "EnumInvalid"
	UnknownField  ViolationKind = "UnknownField"
	TypeMismatch  ViolationKind = "TypeMismatch"
)

// Violation is one planning-time defect, positioned at a field/arg.
type Violation struct {
	Kind    ViolationKind
	Message string
	Type    string
	Field   string
	Arg     string
}

// ValidationError collects every Violation found while building a plan.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "planner: violations found:\n"
	for _, v := range e {
		msg += fmt.Sprintf("- [%s] %s (%s.%s", v.Kind, v.Message, v.Type, v.Field)
		if v.Arg != "" {
			msg += fmt.Sprintf(" arg %s", v.Arg)
		}
		msg += ")\n"
	}
	return msg
}

func violation(kind ViolationKind, message, typeName, field, arg string) *Violation {
	return &Violation{Kind: kind, Message: message, Type: typeName, Field: field, Arg: arg}
}

type builder struct {
	violations ValidationError
	nextID     int
}

func (b *builder) fail(kind ViolationKind, message, typeName, field, arg string) {
	b.violations = append(b.violations, violation(kind, message, typeName, field, arg))
}

func (b *builder) err() error {
	if len(b.violations) == 0 {
		return nil
	}
	return b.violations
}

func (b *builder) newID() int {
	id := b.nextID
	b.nextID++
	return id
}
