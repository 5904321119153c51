package resolve

import "strings"

// ExtractFallback recognizes the default-value idioms users put in card
// templates and returns the literal that would be shown if the expression
// itself had no value:
//
//	{{ states('sensor.x') or 'N/A' }}                  -> N/A
//	{{ a or b or 'none' }}                             -> none
//	{{ 'on' if is_state('x', 'on') else 'off' }}       -> off
//	{{ states('sensor.x') if cond else 'later' }}      -> later
//
// Nothing else is evaluated; anything outside these shapes reports false.
func ExtractFallback(template string) (string, bool) {
	expr, ok := templateBody(template)
	if !ok {
		return "", false
	}
	tokens, ok := tokenize(expr)
	if !ok || len(tokens) == 0 {
		return "", false
	}

	// The conditional expression binds loosest, so it is checked first.
	if ifAt := topLevel(tokens, "if", 0); ifAt > 0 {
		elseAt := topLevel(tokens, "else", ifAt+1)
		if elseAt > ifAt+1 {
			return literal(tokens[elseAt+1:])
		}
		return "", false
	}

	if orAt := lastTopLevel(tokens, "or"); orAt > 0 {
		return literal(tokens[orAt+1:])
	}
	return "", false
}

// templateBody returns the text between the first {{ and the last }}.
func templateBody(template string) (string, bool) {
	start := strings.Index(template, "{{")
	end := strings.LastIndex(template, "}}")
	if start < 0 || end < start+2 {
		return "", false
	}
	body := template[start+2 : end]
	body = strings.TrimPrefix(body, "-")
	body = strings.TrimSuffix(body, "-")
	return strings.TrimSpace(body), true
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenPunct
)

type token struct {
	kind  tokenKind
	text  string
	depth int
}

// tokenize splits expr into words, quoted strings and punctuation, recording
// the bracket depth of each token. Unbalanced quotes or brackets fail.
func tokenize(expr string) ([]token, bool) {
	var tokens []token
	depth := 0
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '\'' || r == '"':
			var b strings.Builder
			j := i + 1
			closed := false
			for j < len(runes) {
				if runes[j] == '\\' && j+1 < len(runes) {
					b.WriteRune(runes[j+1])
					j += 2
					continue
				}
				if runes[j] == r {
					closed = true
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			if !closed {
				return nil, false
			}
			tokens = append(tokens, token{kind: tokenString, text: b.String(), depth: depth})
			i = j + 1
		case r == '(' || r == '[' || r == '{':
			tokens = append(tokens, token{kind: tokenPunct, text: string(r), depth: depth})
			depth++
			i++
		case r == ')' || r == ']' || r == '}':
			depth--
			if depth < 0 {
				return nil, false
			}
			tokens = append(tokens, token{kind: tokenPunct, text: string(r), depth: depth})
			i++
		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWord, text: string(runes[i:j]), depth: depth})
			i = j
		default:
			tokens = append(tokens, token{kind: tokenPunct, text: string(r), depth: depth})
			i++
		}
	}
	if depth != 0 {
		return nil, false
	}
	return tokens, true
}

func isWordRune(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isKeyword(t token, word string) bool {
	return t.kind == tokenWord && t.depth == 0 && t.text == word
}

func topLevel(tokens []token, word string, from int) int {
	for i := from; i < len(tokens); i++ {
		if isKeyword(tokens[i], word) {
			return i
		}
	}
	return -1
}

func lastTopLevel(tokens []token, word string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if isKeyword(tokens[i], word) {
			return i
		}
	}
	return -1
}

// literal accepts exactly one quoted string.
func literal(tokens []token) (string, bool) {
	if len(tokens) != 1 || tokens[0].kind != tokenString {
		return "", false
	}
	return tokens[0].text, true
}
