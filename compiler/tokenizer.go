package compiler

import (
	"bufio"
	"io"
	"strconv"

	"github.com/nandkit/hack/util"
)

// A simple Tokenizer for jack.

// Jack language has those elements:
// * KeyWord: class, constructor, function, method, field, static, var, int, char, boolean, void, true.
// 			false, null, this, let, do, if, else, while, return.
// * Symbol: {, }, (, ), [, ], ., ,, ;, +, -, *, /, &, |, <, >, =, ~.
// * Constant: integer 0..32767, string ("xxx") which can't hold a quote or a newline.
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: /**/, /** */, //.

type TokenType int

const (
	ClassTP              TokenType = iota // class
	ConstructorTP                         // constructor
	FunctionTP                            // function
	MethodTP                              // method
	FieldTP                               // field
	StaticTP                              // static
	VarTP                                 // var
	IntTP                                 // int
	CharTP                                // char
	BooleanTP                             // boolean
	VoidTP                                // void
	TrueTP                                // true
	FalseTP                               // false
	NullTP                                // null
	ThisTP                                // this
	LetTP                                 // let
	DoTp                                  // do
	IfTP                                  // if
	ElseTP                                // else
	WhileTP                               // while
	ReturnTP                              // return
	LeftBraceTP                           // {
	RightBraceTP                          // }
	LeftParentThesesTP                    // (
	RightParentThesesTP                   // )
	LeftSquareBracketTP                   // [
	RightSquareBracketTP                  // ]
	DotTP                                 // .
	CommaTP                               // ,
	SemiColonTP                           // ;
	AddTP                                 // +
	MinusTP                               // -
	MultiplyTP                            // *
	DivideTP                              // /
	AndTP                                 // &
	OrTP                                  // |
	GreaterTP                             // >
	LessTP                                // <
	EqualTP                               // =
	BooleanNegativeTP                     // ~
	IntegerTP                             // 1010
	StringTP                              // "xxx"
	IdentifierTP                          // varA
)

const maxIntegerConstant = 1<<15 - 1

// keyWordTokenTPMap is the mapping from keyWord to the corresponding TokenTP.
var keyWordTokenTPMap = map[string]TokenType{
	"class":       ClassTP,
	"constructor": ConstructorTP,
	"function":    FunctionTP,
	"method":      MethodTP,
	"field":       FieldTP,
	"static":      StaticTP,
	"var":         VarTP,
	"int":         IntTP,
	"char":        CharTP,
	"boolean":     BooleanTP,
	"void":        VoidTP,
	"true":        TrueTP,
	"false":       FalseTP,
	"null":        NullTP,
	"this":        ThisTP,
	"let":         LetTP,
	"do":          DoTp,
	"if":          IfTP,
	"else":        ElseTP,
	"while":       WhileTP,
	"return":      ReturnTP,
}

// simpleSymbolTokenTPMap is the mapping from simple symbol to the corresponding TokenTP.
// '/' is missing here since it may also start a comment.
var simpleSymbolTokenTPMap = map[byte]TokenType{
	'{': LeftBraceTP,
	'}': RightBraceTP,
	'(': LeftParentThesesTP,
	')': RightParentThesesTP,
	'[': LeftSquareBracketTP,
	']': RightSquareBracketTP,
	'.': DotTP,
	',': CommaTP,
	';': SemiColonTP,
	'+': AddTP,
	'-': MinusTP,
	'*': MultiplyTP,
	'&': AndTP,
	'|': OrTP,
	'>': GreaterTP,
	'<': LessTP,
	'=': EqualTP,
	'~': BooleanNegativeTP,
}

type Token struct {
	content  string
	line     int
	startPos int
	endPos   int
	tp       TokenType
}

type Tokenizer struct {
	currentPos  int
	currentFile string
	currentLine int
	tokens      []*Token
	// A block comment may span lines. commentStartLine is where it opened.
	inBlockComment   bool
	commentStartLine int
}

func NewTokenizer(file string) *Tokenizer {
	return &Tokenizer{currentFile: file}
}

// Tokenize accepts a source `rd` and tokenizes its content according to jack language rules.
// Comments and spaces are dropped.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) ([]*Token, error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		parseErr := tokenizer.parseLine(line)
		if parseErr != nil {
			return nil, parseErr
		}
		if err == io.EOF {
			break
		}
	}
	if tokenizer.inBlockComment {
		return nil, tokenizer.makeError("/*", tokenizer.commentStartLine, "comment is not closed")
	}
	return tokenizer.tokens, nil
}

func (tokenizer *Tokenizer) parseLine(line []byte) error {
	for {
		token, err := tokenizer.getNextToken(line)
		if err != nil {
			return err
		}
		if token == nil {
			return nil
		}
		tokenizer.tokens = append(tokenizer.tokens, token)
	}
}

// getNextToken returns the next token from line, or nil when the rest of line holds none.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	if tokenizer.inBlockComment && !tokenizer.skipBlockComment(line) {
		return nil, nil
	}
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) {
		return nil, nil
	}
	c := line[tokenizer.currentPos]
	switch {
	case c == '/':
		return tokenizer.tokenCommentOrDivide(line)
	case c == '"':
		return tokenizer.tokenString(line)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line)
	case util.IsLetterOrUnderscore(c):
		return tokenizer.toKeywordOrIdentifier(line)
	}
	if _, ok := simpleSymbolTokenTPMap[c]; ok {
		return tokenizer.tokenSimpleSymbol(line), nil
	}
	return nil, tokenizer.makeError(string(c), tokenizer.currentLine, "illegal character")
}

// trimSpace will step forward through line and skip all continuous space.
func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) && util.IsSpace(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

func (tokenizer *Tokenizer) newToken(line []byte, startPos int, tp TokenType) *Token {
	return &Token{
		content:  string(line[startPos:tokenizer.currentPos]),
		line:     tokenizer.currentLine,
		startPos: startPos,
		endPos:   tokenizer.currentPos,
		tp:       tp,
	}
}

func (tokenizer *Tokenizer) tokenSimpleSymbol(line []byte) *Token {
	startPos := tokenizer.currentPos
	tokenizer.currentPos++
	return tokenizer.newToken(line, startPos, simpleSymbolTokenTPMap[line[startPos]])
}

func (tokenizer *Tokenizer) tokenCommentOrDivide(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	// If / is not followed by * or /, then it's not a comment.
	if startPos+1 >= len(line) || (line[startPos+1] != '/' && line[startPos+1] != '*') {
		tokenizer.currentPos++
		return tokenizer.newToken(line, startPos, DivideTP), nil
	}
	if line[startPos+1] == '/' {
		tokenizer.currentPos = len(line)
		return nil, nil
	}
	tokenizer.currentPos += 2
	tokenizer.inBlockComment, tokenizer.commentStartLine = true, tokenizer.currentLine
	return tokenizer.getNextToken(line)
}

// skipBlockComment looks for the closing */ on line and reports whether it was found.
func (tokenizer *Tokenizer) skipBlockComment(line []byte) bool {
	for tokenizer.currentPos < len(line)-1 {
		if line[tokenizer.currentPos] == '*' && line[tokenizer.currentPos+1] == '/' {
			tokenizer.currentPos += 2
			tokenizer.inBlockComment = false
			return true
		}
		tokenizer.currentPos++
	}
	tokenizer.currentPos = len(line)
	return false
}

// tokenString reads a string constant. The token content excludes the quotes.
func (tokenizer *Tokenizer) tokenString(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	tokenizer.currentPos++
	for tokenizer.currentPos < len(line) {
		switch line[tokenizer.currentPos] {
		case '"':
			token := &Token{
				content:  string(line[startPos+1 : tokenizer.currentPos]),
				line:     tokenizer.currentLine,
				startPos: startPos + 1,
				endPos:   tokenizer.currentPos,
				tp:       StringTP,
			}
			tokenizer.currentPos++
			return token, nil
		case '\n', '\r':
			return nil, tokenizer.makeError(string(line[startPos:tokenizer.currentPos]), tokenizer.currentLine,
				"newline in string constant")
		}
		tokenizer.currentPos++
	}
	return nil, tokenizer.makeError(string(line[startPos:]), tokenizer.currentLine, "string constant is not closed")
}

func (tokenizer *Tokenizer) tokenNumber(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	if tokenizer.currentPos < len(line) && util.IsLetterOrUnderscore(line[tokenizer.currentPos]) {
		return nil, tokenizer.makeError(string(line[startPos:tokenizer.currentPos+1]), tokenizer.currentLine,
			"incorrect identifier format")
	}
	token := tokenizer.newToken(line, startPos, IntegerTP)
	value, err := strconv.Atoi(token.content)
	if err != nil || value > maxIntegerConstant {
		return nil, tokenizer.makeError(token.content, tokenizer.currentLine, "integer constant out of range 0..32767")
	}
	return token, nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsLetterOrUnderscoreOrNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	token := tokenizer.newToken(line, startPos, IdentifierTP)
	if keyWordTP, isKeyWord := keyWordTokenTPMap[token.content]; isKeyWord {
		token.tp = keyWordTP
	}
	return token, nil
}

func (tokenizer *Tokenizer) makeError(near string, line int, msg string) error {
	return &Error{Kind: LexicalError, File: tokenizer.currentFile, Line: line, Near: near, Msg: msg}
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine, tokenizer.currentFile = 0, 0, ""
	tokenizer.tokens = nil
	tokenizer.inBlockComment, tokenizer.commentStartLine = false, 0
}
