// Package validate checks card configurations before a countdown starts.
//
// Struct tags on config.Card drive go-playground/validator with four custom
// grammars: csscolor, cssdimension, aspectratio and entityref. Any field
// holding a template is accepted as is. Issues are either critical or
// warnings; only critical issues make Check return Invalid; warnings are
// shown to the user while the card keeps running.
package validate
