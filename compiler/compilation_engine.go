package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nandkit/hack/util"
	"github.com/nandkit/hack/vmtranslator"
)

// CompilationEngine is a recursive descent parser which writes vm code while it
// parses: every production emits its commands as soon as they are known and
// nothing is built in between. One token of lookahead decides between the
// alternatives of the grammar, and a step back lets a production hand a token
// it already read to another one.
//
// Expressions have no precedence, operators apply strictly from left to right
// in the order they are written.
type CompilationEngine struct {
	tokenCursor
	file      string
	className string
	symbols   *SymbolTable
	writer    *VMWriter
	// labelID numbers the labels of if and while statements, one counter per class.
	labelID        int
	subroutineKind TokenType
	subroutineName string
	returnType     string
	subroutines    map[string]bool
	seenSubroutine bool
}

var arithmeticOpMap = map[TokenType]vmtranslator.ArithmeticOp{
	AddTP:     vmtranslator.AddOp,
	MinusTP:   vmtranslator.SubOp,
	AndTP:     vmtranslator.AndOp,
	OrTP:      vmtranslator.OrOp,
	LessTP:    vmtranslator.LtOp,
	GreaterTP: vmtranslator.GtOp,
	EqualTP:   vmtranslator.EqOp,
}

var mathCallMap = map[TokenType]string{
	MultiplyTP: "Math.multiply",
	DivideTP:   "Math.divide",
}

func NewCompilationEngine(file string, tokens []*Token, w io.Writer) *CompilationEngine {
	return &CompilationEngine{
		tokenCursor: tokenCursor{currentTokens: tokens},
		file:        file,
		symbols:     NewSymbolTable(),
		writer:      NewVMWriter(w),
		subroutines: map[string]bool{},
	}
}

// CompileClass compiles the whole token stream, which must hold exactly one class.
func (engine *CompilationEngine) CompileClass() error {
	err := engine.compileClass()
	if err != nil {
		return err
	}
	return engine.writer.Err()
}

func (engine *CompilationEngine) makeError(expected string) error {
	near, line := "EOF", 0
	if token := engine.getCurrentToken(); token != nil {
		near, line = token.content, token.line
	} else if last := engine.peekAt(-1); last != nil {
		line = last.line
	}
	return &Error{Kind: SyntaxError, File: engine.file, Line: line, Near: near, Msg: "expect " + expected}
}

func (engine *CompilationEngine) makeSemanticError(token *Token, format string, args ...interface{}) error {
	return &Error{Kind: SemanticError, File: engine.file, Line: token.line, Near: token.content,
		Msg: fmt.Sprintf(format, args...)}
}

func (engine *CompilationEngine) expect(expectedTokenTp TokenType, expected string) (*Token, error) {
	token, ok := engine.expectToken(expectedTokenTp, true)
	if !ok {
		return nil, engine.makeError(expected)
	}
	return token, nil
}

func (engine *CompilationEngine) nextLabelID() int {
	id := engine.labelID
	engine.labelID++
	return id
}

// class className { classVarDec* subroutineDec* }
func (engine *CompilationEngine) compileClass() error {
	_, err := engine.expect(ClassTP, "'class'")
	if err != nil {
		return err
	}
	nameToken, err := engine.expect(IdentifierTP, "class name")
	if err != nil {
		return err
	}
	engine.className = nameToken.content
	if engine.file != "" && util.UnitName(engine.file) != engine.className {
		return engine.makeSemanticError(nameToken, "class %s must be declared in file %s.jack",
			engine.className, engine.className)
	}
	_, err = engine.expect(LeftBraceTP, "'{'")
	if err != nil {
		return err
	}
	for {
		token := engine.getCurrentToken()
		if token == nil {
			return engine.makeError("'}'")
		}
		switch token.tp {
		case StaticTP, FieldTP:
			if engine.seenSubroutine {
				return engine.makeError("subroutine declaration, class variables come first")
			}
			err = engine.compileClassVarDec()
		case ConstructorTP, FunctionTP, MethodTP:
			engine.seenSubroutine = true
			err = engine.compileSubroutine()
		case RightBraceTP:
			engine.stepForward()
			if engine.hasRemainTokens() {
				return engine.makeError("end of file after class body")
			}
			return nil
		default:
			return engine.makeError("class variable or subroutine declaration")
		}
		if err != nil {
			return err
		}
	}
}

// ('static' | 'field') type varName (',' varName)* ;
func (engine *CompilationEngine) compileClassVarDec() error {
	kind := FieldKind
	if engine.getCurrentToken().tp == StaticTP {
		kind = StaticKind
	}
	engine.stepForward()
	varType, err := engine.compileType(false)
	if err != nil {
		return err
	}
	return engine.compileVarNames(varType, kind)
}

// 'int' | 'char' | 'boolean' | className, and 'void' for return types.
func (engine *CompilationEngine) compileType(allowVoid bool) (string, error) {
	if token, ok := engine.expectOneOf(IntTP, CharTP, BooleanTP, IdentifierTP); ok {
		return token.content, nil
	}
	if allowVoid {
		if token, ok := engine.expectToken(VoidTP, true); ok {
			return token.content, nil
		}
		return "", engine.makeError("return type")
	}
	return "", engine.makeError("type")
}

func (engine *CompilationEngine) compileVarNames(varType string, kind SymbolKind) error {
	for {
		nameToken, err := engine.expect(IdentifierTP, "variable name")
		if err != nil {
			return err
		}
		err = engine.define(nameToken, varType, kind)
		if err != nil {
			return err
		}
		if _, ok := engine.expectToken(CommaTP, true); ok {
			continue
		}
		_, err = engine.expect(SemiColonTP, "',' or ';'")
		return err
	}
}

func (engine *CompilationEngine) define(nameToken *Token, varType string, kind SymbolKind) error {
	_, err := engine.symbols.Define(nameToken.content, varType, kind)
	if err != nil {
		return engine.makeSemanticError(nameToken, "%v", err)
	}
	return nil
}

// ('constructor' | 'function' | 'method') ('void' | type) subroutineName ( parameterList ) subroutineBody
func (engine *CompilationEngine) compileSubroutine() error {
	engine.subroutineKind = engine.getCurrentToken().tp
	engine.stepForward()
	engine.symbols.StartSubroutine()
	returnType, err := engine.compileType(true)
	if err != nil {
		return err
	}
	nameToken, err := engine.expect(IdentifierTP, "subroutine name")
	if err != nil {
		return err
	}
	engine.subroutineName, engine.returnType = nameToken.content, returnType
	if engine.subroutines[nameToken.content] {
		return engine.makeSemanticError(nameToken, "subroutine %s is already declared in class %s",
			nameToken.content, engine.className)
	}
	engine.subroutines[nameToken.content] = true
	if engine.subroutineKind == MethodTP {
		// The receiver is argument 0.
		_, _ = engine.symbols.Define("this", engine.className, ArgKind)
	}
	_, err = engine.expect(LeftParentThesesTP, "'('")
	if err != nil {
		return err
	}
	err = engine.compileParameterList()
	if err != nil {
		return err
	}
	_, err = engine.expect(RightParentThesesTP, "')'")
	if err != nil {
		return err
	}
	return engine.compileSubroutineBody()
}

// ((type varName) (',' type varName)*)?
func (engine *CompilationEngine) compileParameterList() error {
	if _, ok := engine.expectToken(RightParentThesesTP, false); ok {
		return nil
	}
	for {
		varType, err := engine.compileType(false)
		if err != nil {
			return err
		}
		nameToken, err := engine.expect(IdentifierTP, "parameter name")
		if err != nil {
			return err
		}
		err = engine.define(nameToken, varType, ArgKind)
		if err != nil {
			return err
		}
		if _, ok := engine.expectToken(CommaTP, true); !ok {
			return nil
		}
	}
}

// { varDec* statements }. The function header is written once all var
// declarations are read, which is when the local count is known. The body
// must return on every path.
func (engine *CompilationEngine) compileSubroutineBody() error {
	_, err := engine.expect(LeftBraceTP, "'{'")
	if err != nil {
		return err
	}
	for {
		if _, ok := engine.expectToken(VarTP, true); !ok {
			break
		}
		varType, err := engine.compileType(false)
		if err != nil {
			return err
		}
		err = engine.compileVarNames(varType, VarKind)
		if err != nil {
			return err
		}
	}
	engine.writer.WriteFunction(engine.className+"."+engine.subroutineName, engine.symbols.VarCount(VarKind))
	switch engine.subroutineKind {
	case ConstructorTP:
		engine.writer.WritePush(vmtranslator.ConstantSegment, engine.symbols.VarCount(FieldKind))
		engine.writer.WriteCall("Memory.alloc", 1)
		engine.writer.WritePop(vmtranslator.PointerSegment, 0)
	case MethodTP:
		engine.writer.WritePush(vmtranslator.ArgumentSegment, 0)
		engine.writer.WritePop(vmtranslator.PointerSegment, 0)
	}
	returns, err := engine.compileStatements()
	if err != nil {
		return err
	}
	closeToken, err := engine.expect(RightBraceTP, "'}'")
	if err != nil {
		return err
	}
	if !returns {
		return engine.makeSemanticError(closeToken, "subroutine %s.%s does not return on every path",
			engine.className, engine.subroutineName)
	}
	return nil
}

// compileStatements reports whether control never runs past the statements:
// one of them is a return, an if whose both branches return, or a while (true)
// loop, which can only be left by returning.
func (engine *CompilationEngine) compileStatements() (returns bool, err error) {
	for {
		token := engine.getCurrentToken()
		if token == nil {
			return returns, nil
		}
		switch token.tp {
		case LetTP:
			err = engine.compileLet()
		case IfTP:
			var ifReturns bool
			ifReturns, err = engine.compileIf()
			returns = returns || ifReturns
		case WhileTP:
			var endless bool
			endless, err = engine.compileWhile()
			returns = returns || endless
		case DoTp:
			err = engine.compileDo()
		case ReturnTP:
			err = engine.compileReturn()
			returns = true
		default:
			return returns, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// lookupVariable resolves a variable use, which must be visible from the
// current subroutine.
func (engine *CompilationEngine) lookupVariable(nameToken *Token) (*SymbolDesc, error) {
	desc, ok := engine.symbols.Lookup(nameToken.content)
	if !ok {
		return nil, engine.makeSemanticError(nameToken, "undefined variable %s", nameToken.content)
	}
	if desc.Kind == FieldKind && engine.subroutineKind == FunctionTP {
		return nil, engine.makeSemanticError(nameToken, "field %s cannot be used in a function", desc.Name)
	}
	return desc, nil
}

func (engine *CompilationEngine) pushVariable(desc *SymbolDesc) {
	engine.writer.WritePush(desc.Kind.Segment(), desc.Index)
}

func (engine *CompilationEngine) popVariable(desc *SymbolDesc) {
	engine.writer.WritePop(desc.Kind.Segment(), desc.Index)
}

// let varName ([ expression ])? = expression ;
func (engine *CompilationEngine) compileLet() error {
	engine.stepForward()
	nameToken, err := engine.expect(IdentifierTP, "variable name")
	if err != nil {
		return err
	}
	desc, err := engine.lookupVariable(nameToken)
	if err != nil {
		return err
	}
	_, isArray := engine.expectToken(LeftSquareBracketTP, true)
	if isArray {
		engine.pushVariable(desc)
		err = engine.compileExpression()
		if err != nil {
			return err
		}
		_, err = engine.expect(RightSquareBracketTP, "']'")
		if err != nil {
			return err
		}
		engine.writer.WriteArithmetic(vmtranslator.AddOp)
	}
	_, err = engine.expect(EqualTP, "'='")
	if err != nil {
		return err
	}
	err = engine.compileExpression()
	if err != nil {
		return err
	}
	_, err = engine.expect(SemiColonTP, "';'")
	if err != nil {
		return err
	}
	if !isArray {
		engine.popVariable(desc)
		return nil
	}
	// The element address is under the value, park the value while that is redirected.
	engine.writer.WritePop(vmtranslator.TempSegment, 0)
	engine.writer.WritePop(vmtranslator.PointerSegment, 1)
	engine.writer.WritePush(vmtranslator.TempSegment, 0)
	engine.writer.WritePop(vmtranslator.ThatSegment, 0)
	return nil
}

func (engine *CompilationEngine) compileCondition() error {
	_, err := engine.expect(LeftParentThesesTP, "'('")
	if err != nil {
		return err
	}
	err = engine.compileExpression()
	if err != nil {
		return err
	}
	_, err = engine.expect(RightParentThesesTP, "')'")
	return err
}

func (engine *CompilationEngine) compileBlock() (returns bool, err error) {
	_, err = engine.expect(LeftBraceTP, "'{'")
	if err != nil {
		return false, err
	}
	returns, err = engine.compileStatements()
	if err != nil {
		return false, err
	}
	_, err = engine.expect(RightBraceTP, "'}'")
	return returns, err
}

// if ( expression ) { statements } (else { statements })?
func (engine *CompilationEngine) compileIf() (returns bool, err error) {
	engine.stepForward()
	id := engine.nextLabelID()
	trueLabel, falseLabel := fmt.Sprintf("IF_TRUE%d", id), fmt.Sprintf("IF_FALSE%d", id)
	err = engine.compileCondition()
	if err != nil {
		return false, err
	}
	engine.writer.WriteIf(trueLabel)
	engine.writer.WriteGoto(falseLabel)
	engine.writer.WriteLabel(trueLabel)
	trueReturns, err := engine.compileBlock()
	if err != nil {
		return false, err
	}
	if _, ok := engine.expectToken(ElseTP, true); !ok {
		engine.writer.WriteLabel(falseLabel)
		return false, nil
	}
	endLabel := fmt.Sprintf("IF_END%d", id)
	engine.writer.WriteGoto(endLabel)
	engine.writer.WriteLabel(falseLabel)
	falseReturns, err := engine.compileBlock()
	if err != nil {
		return false, err
	}
	engine.writer.WriteLabel(endLabel)
	return trueReturns && falseReturns, nil
}

// while ( expression ) { statements }. endless is set for a literal
// while (true).
func (engine *CompilationEngine) compileWhile() (endless bool, err error) {
	engine.stepForward()
	id := engine.nextLabelID()
	expLabel, endLabel := fmt.Sprintf("WHILE_EXP%d", id), fmt.Sprintf("WHILE_END%d", id)
	endless = isTokenType(engine.peekAt(0), LeftParentThesesTP) && isTokenType(engine.peekAt(1), TrueTP) &&
		isTokenType(engine.peekAt(2), RightParentThesesTP)
	engine.writer.WriteLabel(expLabel)
	err = engine.compileCondition()
	if err != nil {
		return false, err
	}
	engine.writer.WriteArithmetic(vmtranslator.NotOp)
	engine.writer.WriteIf(endLabel)
	_, err = engine.compileBlock()
	if err != nil {
		return false, err
	}
	engine.writer.WriteGoto(expLabel)
	engine.writer.WriteLabel(endLabel)
	return endless, nil
}

// do subroutineCall ; the returned value is dropped.
func (engine *CompilationEngine) compileDo() error {
	engine.stepForward()
	err := engine.compileSubroutineCall()
	if err != nil {
		return err
	}
	_, err = engine.expect(SemiColonTP, "';'")
	if err != nil {
		return err
	}
	engine.writer.WritePop(vmtranslator.TempSegment, 0)
	return nil
}

// return expression? ; a void return gives 0.
func (engine *CompilationEngine) compileReturn() error {
	returnToken := engine.getCurrentToken()
	engine.stepForward()
	isVoid := engine.returnType == "void"
	if _, ok := engine.expectToken(SemiColonTP, true); ok {
		if !isVoid {
			return engine.makeSemanticError(returnToken, "subroutine %s.%s must return a %s",
				engine.className, engine.subroutineName, engine.returnType)
		}
		engine.writer.WritePush(vmtranslator.ConstantSegment, 0)
		engine.writer.WriteReturn()
		return nil
	}
	if isVoid {
		return engine.makeSemanticError(returnToken, "void subroutine %s.%s cannot return a value",
			engine.className, engine.subroutineName)
	}
	err := engine.compileExpression()
	if err != nil {
		return err
	}
	_, err = engine.expect(SemiColonTP, "';'")
	if err != nil {
		return err
	}
	engine.writer.WriteReturn()
	return nil
}

// term (op term)*
func (engine *CompilationEngine) compileExpression() error {
	err := engine.compileTerm()
	if err != nil {
		return err
	}
	for {
		token := engine.getCurrentToken()
		if token == nil {
			return nil
		}
		op, isArithmetic := arithmeticOpMap[token.tp]
		function, isMathCall := mathCallMap[token.tp]
		if !isArithmetic && !isMathCall {
			return nil
		}
		engine.stepForward()
		err = engine.compileTerm()
		if err != nil {
			return err
		}
		if isMathCall {
			engine.writer.WriteCall(function, 2)
		} else {
			engine.writer.WriteArithmetic(op)
		}
	}
}

func (engine *CompilationEngine) compileTerm() error {
	token := engine.getCurrentToken()
	if token == nil {
		return engine.makeError("term")
	}
	switch token.tp {
	case IntegerTP:
		engine.stepForward()
		// Range was checked by the tokenizer.
		value, _ := strconv.Atoi(token.content)
		engine.writer.WritePush(vmtranslator.ConstantSegment, value)
	case StringTP:
		engine.stepForward()
		engine.writer.WriteStringConstant(token.content)
	case TrueTP:
		engine.stepForward()
		engine.writer.WritePush(vmtranslator.ConstantSegment, 0)
		engine.writer.WriteArithmetic(vmtranslator.NotOp)
	case FalseTP, NullTP:
		engine.stepForward()
		engine.writer.WritePush(vmtranslator.ConstantSegment, 0)
	case ThisTP:
		engine.stepForward()
		if engine.subroutineKind == FunctionTP {
			return engine.makeSemanticError(token, "this cannot be used in a function")
		}
		engine.writer.WritePush(vmtranslator.PointerSegment, 0)
	case LeftParentThesesTP:
		engine.stepForward()
		err := engine.compileExpression()
		if err != nil {
			return err
		}
		_, err = engine.expect(RightParentThesesTP, "')'")
		return err
	case MinusTP, BooleanNegativeTP:
		engine.stepForward()
		err := engine.compileTerm()
		if err != nil {
			return err
		}
		if token.tp == MinusTP {
			engine.writer.WriteArithmetic(vmtranslator.NegOp)
		} else {
			engine.writer.WriteArithmetic(vmtranslator.NotOp)
		}
	case IdentifierTP:
		return engine.compileIdentifierTerm()
	default:
		return engine.makeError("term")
	}
	return nil
}

// varName | varName [ expression ] | subroutineCall
func (engine *CompilationEngine) compileIdentifierTerm() error {
	nameToken := engine.getCurrentToken()
	engine.stepForward()
	if next := engine.getCurrentToken(); next != nil && (next.tp == LeftParentThesesTP || next.tp == DotTP) {
		engine.stepBack()
		return engine.compileSubroutineCall()
	}
	desc, err := engine.lookupVariable(nameToken)
	if err != nil {
		return err
	}
	engine.pushVariable(desc)
	if _, ok := engine.expectToken(LeftSquareBracketTP, true); !ok {
		return nil
	}
	err = engine.compileExpression()
	if err != nil {
		return err
	}
	_, err = engine.expect(RightSquareBracketTP, "']'")
	if err != nil {
		return err
	}
	engine.writer.WriteArithmetic(vmtranslator.AddOp)
	engine.writer.WritePop(vmtranslator.PointerSegment, 1)
	engine.writer.WritePush(vmtranslator.ThatSegment, 0)
	return nil
}

// subroutineName ( expressionList ) | (className | varName) . subroutineName ( expressionList )
//
// A receiver is pushed as the first argument when the call names a variable,
// or names no class at all and so targets this. Any other qualifier is taken
// as a class name.
func (engine *CompilationEngine) compileSubroutineCall() error {
	nameToken, err := engine.expect(IdentifierTP, "subroutine name")
	if err != nil {
		return err
	}
	var function string
	nArgs := 0
	if _, qualified := engine.expectToken(DotTP, true); qualified {
		subroutineToken, err := engine.expect(IdentifierTP, "subroutine name")
		if err != nil {
			return err
		}
		if _, isVariable := engine.symbols.Lookup(nameToken.content); isVariable {
			desc, err := engine.lookupVariable(nameToken)
			if err != nil {
				return err
			}
			if isPrimitiveType(desc.Type) {
				return engine.makeSemanticError(nameToken, "cannot call %s on %s of type %s",
					subroutineToken.content, desc.Name, desc.Type)
			}
			engine.pushVariable(desc)
			function, nArgs = desc.Type+"."+subroutineToken.content, 1
		} else {
			function = nameToken.content + "." + subroutineToken.content
		}
	} else {
		if engine.subroutineKind == FunctionTP {
			return engine.makeSemanticError(nameToken, "method %s cannot be called from a function without an object",
				nameToken.content)
		}
		engine.writer.WritePush(vmtranslator.PointerSegment, 0)
		function, nArgs = engine.className+"."+nameToken.content, 1
	}
	_, err = engine.expect(LeftParentThesesTP, "'('")
	if err != nil {
		return err
	}
	count, err := engine.compileExpressionList()
	if err != nil {
		return err
	}
	_, err = engine.expect(RightParentThesesTP, "')'")
	if err != nil {
		return err
	}
	engine.writer.WriteCall(function, nArgs+count)
	return nil
}

// (expression (',' expression)*)?
func (engine *CompilationEngine) compileExpressionList() (int, error) {
	if _, ok := engine.expectToken(RightParentThesesTP, false); ok {
		return 0, nil
	}
	count := 0
	for {
		err := engine.compileExpression()
		if err != nil {
			return 0, err
		}
		count++
		if _, ok := engine.expectToken(CommaTP, true); !ok {
			return count, nil
		}
	}
}

func isTokenType(token *Token, tp TokenType) bool {
	return token != nil && token.tp == tp
}

func isPrimitiveType(varType string) bool {
	return varType == "int" || varType == "char" || varType == "boolean"
}
