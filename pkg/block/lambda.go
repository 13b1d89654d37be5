package block

import "github.com/braceless-cpp/blcc/pkg/token"

// isLambdaCapture reports whether the `[` at index i in meaningful opens a
// lambda capture rather than an array subscript (spec §4.3.1).
func isLambdaCapture(meaningful []token.Token, i int) bool {
	if meaningful[i].Spelling != "[" {
		return false
	}
	if i > 0 {
		prev := meaningful[i-1]
		if prev.Kind == token.Identifier || prev.Kind == token.Literal ||
			prev.Spelling == "]" || prev.Spelling == ")" {
			return false
		}
	}

	depth := 0
	close := -1
	for j := i; j < len(meaningful); j++ {
		switch meaningful[j].Spelling {
		case "[":
			depth++
		case "]":
			depth--
			if depth == 0 {
				close = j
			}
		}
		if close >= 0 {
			break
		}
	}
	if close < 0 {
		return false
	}

	if close+1 < len(meaningful) && meaningful[close+1].Spelling == "(" {
		return true
	}

	capture := meaningful[i+1 : close]
	switch len(capture) {
	case 0:
		return true
	case 1:
		switch capture[0].Spelling {
		case "&", "=":
			return true
		}
		return capture[0].Kind == token.Identifier
	default:
		return false
	}
}

// containsLambda reports whether any `[` in meaningful opens a lambda.
func containsLambda(meaningful []token.Token) bool {
	for i, tk := range meaningful {
		if tk.Spelling == "[" && isLambdaCapture(meaningful, i) {
			return true
		}
	}
	return false
}
