package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/datetime"
	"github.com/five82/tminus/internal/resolve"
)

// Severity ranks an Issue.
type Severity string

const (
	// Critical issues block the card from running.
	Critical Severity = "critical"
	// Warning issues are reported but the card still runs.
	Warning Severity = "warning"
)

// Issue is one problem found in a card.
type Issue struct {
	Field      string
	Message    string
	Severity   Severity
	Suggestion string
}

func (i Issue) String() string {
	if i.Suggestion == "" {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Message, i.Suggestion)
}

// Result is either Valid or Invalid.
type Result interface {
	isResult()
}

// Valid holds a card that may run, with any advisory warnings.
type Valid struct {
	Card     config.Card
	Warnings []Issue
}

// Invalid holds every issue of a card that has at least one critical issue.
type Invalid struct {
	Issues []Issue
}

func (Valid) isResult()   {}
func (Invalid) isResult() {}

// Error lists the critical issues.
func (inv Invalid) Error() string {
	var parts []string
	for _, issue := range inv.Issues {
		if issue.Severity == Critical {
			parts = append(parts, issue.String())
		}
	}
	return strings.Join(parts, "; ")
}

// Validator checks cards. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the card grammars registered.
func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	if err := registerGrammars(v); err != nil {
		return nil, fmt.Errorf("register grammars: %w", err)
	}
	return &Validator{v: v}, nil
}

var std = func() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}()

// Validate checks card with the package validator.
func Validate(card config.Card) []Issue {
	return std.Validate(card)
}

// Check checks card with the package validator.
func Check(card config.Card) Result {
	return std.Check(card)
}

// Validate returns every issue in card. It never fails; an empty slice means
// the card is clean.
func (val *Validator) Validate(card config.Card) []Issue {
	card = normalize(card)

	var issues []Issue
	err := val.v.Struct(card)
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			issues = append(issues, fieldIssue(fe))
		}
	case err != nil:
		issues = append(issues, Issue{Field: "card", Message: err.Error(), Severity: Critical})
	}

	issues = append(issues, advisories(card)...)
	return issues
}

// Check sorts card into Valid or Invalid. Only critical issues make a card
// Invalid.
func (val *Validator) Check(card config.Card) Result {
	issues := val.Validate(card)
	if HasCritical(issues) {
		return Invalid{Issues: issues}
	}
	return Valid{Card: normalize(card), Warnings: issues}
}

// HasCritical reports whether any issue is critical.
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == Critical {
			return true
		}
	}
	return false
}

func normalize(card config.Card) config.Card {
	card.TargetDate = strings.TrimSpace(card.TargetDate)
	card.TimerEntity = strings.TrimSpace(card.TimerEntity)
	card.CreationDate = strings.TrimSpace(card.CreationDate)
	return card
}

func fieldIssue(fe validator.FieldError) Issue {
	field := fe.Field()
	value := fmt.Sprint(fe.Value())
	switch fe.Tag() {
	case "required_without":
		return Issue{
			Field:      field,
			Message:    "no target date specified",
			Severity:   Critical,
			Suggestion: "set target_date to a date, entity id or template, or set timer_entity",
		}
	case "csscolor":
		return Issue{
			Field:      field,
			Message:    fmt.Sprintf("%q is not a valid color", value),
			Severity:   Critical,
			Suggestion: "use a hex (#ff8800), rgb(), rgba(), hsl(), hsla() or named color",
		}
	case "cssdimension":
		return Issue{
			Field:      field,
			Message:    fmt.Sprintf("%q is not a valid dimension", value),
			Severity:   Critical,
			Suggestion: "use a number with px, %, em, rem, vh or vw, for example 120px",
		}
	case "aspectratio":
		return Issue{
			Field:      field,
			Message:    fmt.Sprintf("%q is not a valid aspect ratio", value),
			Severity:   Critical,
			Suggestion: "use width/height, for example 16/9",
		}
	case "entityref":
		return Issue{
			Field:      field,
			Message:    fmt.Sprintf("%q does not look like an entity id", value),
			Severity:   Warning,
			Suggestion: "use the full id, for example timer.laundry",
		}
	default:
		return Issue{
			Field:    field,
			Message:  fmt.Sprintf("failed %s check", fe.Tag()),
			Severity: Critical,
		}
	}
}

func advisories(card config.Card) []Issue {
	var issues []Issue

	if card.UnitsConfigured() && !anyTrue(card.ShowMonths, card.ShowDays, card.ShowHours, card.ShowMinutes, card.ShowSeconds) {
		issues = append(issues, Issue{
			Field:      "show_*",
			Message:    "no time units are enabled; the countdown will read 0 seconds until it expires",
			Severity:   Warning,
			Suggestion: "enable at least one of show_months, show_days, show_hours, show_minutes, show_seconds",
		})
	}

	if card.TimerEntity != "" && !strings.HasPrefix(card.TimerEntity, "timer.") && resolve.IsEntityReference(card.TimerEntity) {
		issues = append(issues, Issue{
			Field:      "timer_entity",
			Message:    fmt.Sprintf("%q is not a timer entity", card.TimerEntity),
			Severity:   Warning,
			Suggestion: "use an entity from the timer domain",
		})
	}

	target, targetOK := literalDate(card.TargetDate)
	if isLiteral(card.TargetDate) && !targetOK {
		issues = append(issues, Issue{
			Field:      "target_date",
			Message:    fmt.Sprintf("%q is not a recognised date", card.TargetDate),
			Severity:   Warning,
			Suggestion: "use ISO 8601, for example 2027-01-01T00:00:00",
		})
	}
	creation, creationOK := literalDate(card.CreationDate)
	if isLiteral(card.CreationDate) && !creationOK {
		issues = append(issues, Issue{
			Field:      "creation_date",
			Message:    fmt.Sprintf("%q is not a recognised date", card.CreationDate),
			Severity:   Warning,
			Suggestion: "use ISO 8601, for example 2026-01-01T00:00:00",
		})
	}
	if targetOK && creationOK && creation.After(target) {
		issues = append(issues, Issue{
			Field:      "creation_date",
			Message:    "creation date is after the target date",
			Severity:   Warning,
			Suggestion: "the progress bar will show as complete",
		})
	}
	return issues
}

func isLiteral(value string) bool {
	return value != "" && !resolve.IsTemplate(value) && !resolve.IsEntityReference(value)
}

func literalDate(value string) (at time.Time, ok bool) {
	if !isLiteral(value) {
		return at, false
	}
	at, err := datetime.Parse(value)
	return at, err == nil
}

func anyTrue(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil && *f {
			return true
		}
	}
	return false
}
