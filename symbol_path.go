package calsym

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pattyshack/gt/parseutil"
	"github.com/pattyshack/gt/stringutil"
)

type SymbolId int

const (
	IntegerLiteralToken = SymbolId(256)
	IdentifierToken     = SymbolId(257)
	DotToken            = SymbolId(258)
	LbracketToken       = SymbolId(259)
	RbracketToken       = SymbolId(260)

	// MaybeTokenizeIntegerOrFloatLiteral needs a float subtype even
	// though paths never contain floats.
	floatLiteralToken = SymbolId(261)
)

func (id SymbolId) String() string {
	switch id {
	case IntegerLiteralToken:
		return "integer"
	case IdentifierToken:
		return "identifier"
	case DotToken:
		return "'.'"
	case LbracketToken:
		return "'['"
	case RbracketToken:
		return "']'"
	}
	return fmt.Sprintf("SymbolId(%d)", int(id))
}

type Token = parseutil.Token[SymbolId]
type TokenValue = parseutil.TokenValue[SymbolId]

// PathStep selects one child of a layout tree node, either a named
// aggregate member or an array element.
type PathStep struct {
	Member string
	Index  uint64

	IsIndex bool
}

func (step PathStep) String() string {
	if step.IsIndex {
		return fmt.Sprintf("[%d]", step.Index)
	}
	return step.Member
}

// SymbolPath is a parsed member path query such as
// "struct_b.s1.val_i32" or "TEST_structarr[2].value".
type SymbolPath struct {
	Symbol string
	Steps  []PathStep
}

func (path *SymbolPath) String() string {
	builder := strings.Builder{}
	builder.WriteString(path.Symbol)
	for _, step := range path.Steps {
		if !step.IsIndex {
			builder.WriteByte('.')
		}
		builder.WriteString(step.String())
	}
	return builder.String()
}

type pathLexerImpl struct {
	parseutil.BufferedByteLocationReader
	*stringutil.InternPool
}

func newPathLexer(path string) *pathLexerImpl {
	reader := parseutil.NewBufferedByteLocationReaderFromSlice(
		"",
		[]byte(path))

	return &pathLexerImpl{
		BufferedByteLocationReader: reader,
		InternPool:                 stringutil.NewInternPool(),
	}
}

func (lexer *pathLexerImpl) peekNextToken() (SymbolId, string, error) {
	peeked, err := lexer.Peek(utf8.UTFMax)
	if len(peeked) > 0 && err == io.EOF {
		err = nil
	}
	if err != nil {
		return 0, "", err
	}

	char := peeked[0]

	if ('a' <= char && char <= 'z') ||
		('A' <= char && char <= 'Z') ||
		char == '_' {

		return IdentifierToken, "", nil
	}

	if '0' <= char && char <= '9' {
		return IntegerLiteralToken, "", nil
	}

	switch char {
	case '.':
		return DotToken, ".", nil
	case '[':
		return LbracketToken, "[", nil
	case ']':
		return RbracketToken, "]", nil
	}

	utf8Char, size := utf8.DecodeRune(peeked)
	if size == 1 || utf8Char == utf8.RuneError {
		return 0, "", fmt.Errorf("Unexpected rune (%v)", utf8Char)
	}

	return IdentifierToken, "", nil
}

func (lexer *pathLexerImpl) lexIntegerLiteralToken() (Token, error) {
	token, hasNoDigits, err := parseutil.MaybeTokenizeIntegerOrFloatLiteral(
		lexer.BufferedByteLocationReader,
		64,
		lexer.InternPool,
		IntegerLiteralToken,
		floatLiteralToken)
	if err != nil {
		return nil, err
	}

	if token == nil {
		panic("should never happen")
	}

	if hasNoDigits {
		return nil, fmt.Errorf("%s has no digits", token.SubType)
	}

	if token.SymbolId != IntegerLiteralToken {
		return nil, fmt.Errorf("Unexpected float literal (%s)", token.Value)
	}

	return token, nil
}

func (lexer *pathLexerImpl) lexIdentifierToken() (Token, error) {
	token, err := parseutil.MaybeTokenizeIdentifier(
		lexer.BufferedByteLocationReader,
		64,
		lexer.InternPool,
		IdentifierToken)
	if err != nil {
		return nil, err
	}

	if token == nil {
		panic("should never happen")
	}

	return token, nil
}

func (lexer *pathLexerImpl) Next() (Token, error) {
	err := parseutil.StripLeadingWhitespaces(lexer.BufferedByteLocationReader)
	if err != nil {
		return nil, err
	}

	symbolId, value, err := lexer.peekNextToken()
	if err != nil {
		return nil, err
	}

	// fixed length token
	if len(value) > 0 {
		loc := lexer.Location

		_, err := lexer.Discard(len(value))
		if err != nil {
			panic("should never happen")
		}

		return &TokenValue{
			SymbolId:    symbolId,
			StartEndPos: parseutil.NewStartEndPos(loc, lexer.Location),
			Value:       value,
		}, nil
	}

	switch symbolId {
	case IntegerLiteralToken:
		return lexer.lexIntegerLiteralToken()
	case IdentifierToken:
		return lexer.lexIdentifierToken()
	}

	panic(fmt.Sprintf("unhandled variable length token: %v", symbolId))
}

type pathParser struct {
	lexer *pathLexerImpl

	peeked Token
}

func (parser *pathParser) next() (Token, error) {
	if parser.peeked != nil {
		token := parser.peeked
		parser.peeked = nil
		return token, nil
	}
	return parser.lexer.Next()
}

func (parser *pathParser) expect(expected SymbolId) (Token, error) {
	token, err := parser.next()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("Unexpected end of path. expected %s", expected)
		}
		return nil, err
	}

	if token.Id() != expected {
		return nil, fmt.Errorf("Unexpected token (%v). expected %s", token, expected)
	}

	return token, nil
}

// ParseSymbolPath parses a member path query.  The grammar is
//
//	path    = identifier step*
//	step    = '.' identifier | '[' integer ']'
func ParseSymbolPath(path string) (*SymbolPath, error) {
	parser := &pathParser{
		lexer: newPathLexer(path),
	}

	symbol, err := parser.expect(IdentifierToken)
	if err != nil {
		return nil, err
	}

	result := &SymbolPath{
		Symbol: symbol.(*TokenValue).Value,
	}

	for {
		token, err := parser.next()
		if err != nil {
			if err == io.EOF {
				return result, nil
			}
			return nil, err
		}

		switch token.Id() {
		case DotToken:
			member, err := parser.expect(IdentifierToken)
			if err != nil {
				return nil, err
			}

			result.Steps = append(
				result.Steps,
				PathStep{
					Member: member.(*TokenValue).Value,
				})

		case LbracketToken:
			literal, err := parser.expect(IntegerLiteralToken)
			if err != nil {
				return nil, err
			}

			index, err := strconv.ParseUint(
				literal.(*TokenValue).Value,
				0,
				64)
			if err != nil {
				return nil, fmt.Errorf(
					"Invalid array index (%s): %w",
					literal.(*TokenValue).Value,
					err)
			}

			_, err = parser.expect(RbracketToken)
			if err != nil {
				return nil, err
			}

			result.Steps = append(
				result.Steps,
				PathStep{
					Index:   index,
					IsIndex: true,
				})

		default:
			return nil, fmt.Errorf(
				"Unexpected token (%v). expected '.' or '['",
				token)
		}
	}
}
