package erms

import (
	"fmt"
	"strings"
)

// max digits accepted per operand, keeps the sum far away from overflow
const maxOperandDigits = 9

// SolveCaptcha extracts the arithmetic expression out of a prompt like
// "What is 3 + 5 ?" and evaluates it.
func SolveCaptcha(prompt string) (int, error) {
	expr := strings.TrimSpace(prompt)
	if len(expr) >= len("what is") && strings.EqualFold(expr[:len("what is")], "what is") {
		expr = expr[len("what is"):]
	}
	expr = strings.TrimSpace(expr)
	expr = strings.TrimRight(expr, "?= \t")
	return EvalArithmetic(expr)
}

// EvalArithmetic evaluates a sequence of integers joined by + and -.
// Digits, '+', '-' and whitespace are the only accepted characters, an
// optional sign may precede the first operand.
func EvalArithmetic(expr string) (int, error) {
	total := 0
	sign := 1
	operands := 0
	expectOperand := true
	signSeen := false

	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			if !expectOperand {
				return 0, fmt.Errorf("missing operator before position %d in %q", i, expr)
			}
			start := i
			value := 0
			for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
				value = value*10 + int(expr[i]-'0')
				i++
			}
			if i-start > maxOperandDigits {
				return 0, fmt.Errorf("operand too long in %q", expr)
			}
			total += sign * value
			operands++
			expectOperand = false
			signSeen = false
		case c == '+' || c == '-':
			if expectOperand && (operands > 0 || signSeen) {
				return 0, fmt.Errorf("unexpected %q at position %d in %q", c, i, expr)
			}
			sign = 1
			if c == '-' {
				sign = -1
			}
			signSeen = true
			expectOperand = true
			i++
		default:
			return 0, fmt.Errorf("unexpected %q at position %d in %q", c, i, expr)
		}
	}

	if operands == 0 {
		return 0, fmt.Errorf("no operands in %q", expr)
	}
	if expectOperand {
		return 0, fmt.Errorf("dangling operator in %q", expr)
	}
	return total, nil
}
