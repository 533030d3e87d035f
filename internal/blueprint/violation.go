package blueprint

import "fmt"

// Violation is one compile-time defect found while building a Blueprint
// from a ConfigModule, grounded on the teacher's internal/ir.Violation and
// mirroring internal/config.Violation's accumulate-don't-abort shape one
// layer up the pipeline.
type Violation struct {
	Message string
	Type    string
	Field   string
}

// ValidationError collects every Violation found during a single Build
// call (spec §4.E, §7 "Validation").
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "blueprint: violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Type != "" {
			line += fmt.Sprintf(" (%s", v.Type)
			if v.Field != "" {
				line += "." + v.Field
			}
			line += ")"
		}
		msg += line + "\n"
	}
	return msg
}

func violation(message, typeName, field string) *Violation {
	return &Violation{Message: message, Type: typeName, Field: field}
}

// builder accumulates violations across the multi-pass construction
// (spec §4.E "config_blueprint" pipeline), grounded on the teacher's
// internal/ir.build accumulate-then-return-at-the-end pattern.
type builder struct {
	violations ValidationError
}

func (b *builder) fail(message, typeName, field string) {
	b.violations = append(b.violations, violation(message, typeName, field))
}

func (b *builder) err() error {
	if len(b.violations) == 0 {
		return nil
	}
	return b.violations
}
