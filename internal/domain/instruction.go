package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Instruction is the structured form of an "<amount><denom>" operation string.
type Instruction struct {
	Amount uint64
	Denom  string
}

// ParseInstruction turns an operation string such as "100uosmo" into an
// Instruction. The denomination may be empty; rejecting it is left to later
// stages.
func ParseInstruction(operation string) (Instruction, error) {
	s := instructionScanner{input: strings.TrimSpace(operation)}

	digits := s.scan(isDigit)
	if digits == "" {
		return Instruction{}, fmt.Errorf("%w: %q has no leading amount", ErrInvalidInstruction, operation)
	}

	denom := s.scan(isLetter)

	if rest := s.rest(); rest != "" {
		return Instruction{}, fmt.Errorf("%w: unexpected %q after %q", ErrInvalidInstruction, rest, digits+denom)
	}

	amount, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Instruction{}, fmt.Errorf("%w: %s", ErrAmountOverflow, digits)
		}
		return Instruction{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}

	return Instruction{Amount: amount, Denom: denom}, nil
}

// instructionScanner walks the operation string one token class at a time.
type instructionScanner struct {
	input string
	pos   int
}

// scan consumes the maximal run of bytes accepted by fn.
func (s *instructionScanner) scan(fn func(byte) bool) string {
	start := s.pos
	for s.pos < len(s.input) && fn(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos]
}

func (s *instructionScanner) rest() string {
	return s.input[s.pos:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
