package compiler

// tokenCursor walks a tokenized class. Lookahead is a peek at the current
// position and pushback is stepping the position back.
type tokenCursor struct {
	currentTokenPos int
	currentTokens   []*Token
}

func (cursor *tokenCursor) hasRemainTokens() bool {
	return cursor.currentTokenPos < len(cursor.currentTokens)
}

// getCurrentToken returns the token at the cursor without consuming it, nil at the end.
func (cursor *tokenCursor) getCurrentToken() *Token {
	return cursor.peekAt(0)
}

func (cursor *tokenCursor) peekAt(offset int) *Token {
	pos := cursor.currentTokenPos + offset
	if pos < 0 || pos >= len(cursor.currentTokens) {
		return nil
	}
	return cursor.currentTokens[pos]
}

func (cursor *tokenCursor) stepForward() {
	cursor.currentTokenPos++
}

func (cursor *tokenCursor) stepBack() {
	if cursor.currentTokenPos > 0 {
		cursor.currentTokenPos--
	}
}

// expectToken reports whether the current token has type expectedTokenTp, consuming it
// when walk is set.
func (cursor *tokenCursor) expectToken(expectedTokenTp TokenType, walk bool) (*Token, bool) {
	token := cursor.getCurrentToken()
	if token == nil || token.tp != expectedTokenTp {
		return nil, false
	}
	if walk {
		cursor.stepForward()
	}
	return token, true
}

// expectOneOf is expectToken for a choice of types, always consuming on match.
func (cursor *tokenCursor) expectOneOf(expectedTokenTPs ...TokenType) (*Token, bool) {
	for _, tp := range expectedTokenTPs {
		if token, ok := cursor.expectToken(tp, true); ok {
			return token, true
		}
	}
	return nil, false
}
