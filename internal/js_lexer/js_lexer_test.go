package js_lexer

import (
	"fmt"
	"testing"

	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/test"
)

func lexerForTest(contents string) (Lexer, []logger.Msg) {
	log := logger.NewDeferLog()
	lexer := func() Lexer {
		defer func() {
			r := recover()
			if _, isLexerPanic := r.(LexerPanic); r != nil && !isLexerPanic {
				panic(r)
			}
		}()
		return NewLexer(log, test.SourceForTest(contents))
	}()
	return lexer, log.Done()
}

func expectLexerError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		_, msgs := lexerForTest(contents)
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqual(t, text, expected)
	})
}

func expectIdentifier(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexerForTest(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TIdentifier)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func expectNumber(t *testing.T, contents string, expected float64) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexerForTest(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TNumericLiteral)
		test.AssertEqual(t, lexer.Number, expected)
	})
}

func expectString(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexerForTest(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TStringLiteral)
		test.AssertEqual(t, UTF16ToString(lexer.StringLiteral), expected)
	})
}

func TestTokens(t *testing.T) {
	expected := []struct {
		contents string
		token    T
	}{
		{"", TEndOfFile},
		{"\x00", TSyntaxError},

		// Whitespace
		{" ", TEndOfFile},
		{"\t", TEndOfFile},
		{"\r", TEndOfFile},
		{"\n", TEndOfFile},
		{" ", TEndOfFile},
		{" ", TEndOfFile},
		{" ", TEndOfFile},
		{"\uFEFF", TEndOfFile},

		// "#!/usr/bin/env node"
		{"#!/usr/bin/env node", THashbang},

		// Literals
		{"`x`", TNoSubstitutionTemplateLiteral},
		{"1", TNumericLiteral},
		{"'x'", TStringLiteral},
		{"\"x\"", TStringLiteral},

		// Pseudo-literals
		{"`x${", TTemplateHead},

		// Punctuation
		{"&", TAmpersand},
		{"&&", TAmpersandAmpersand},
		{"*", TAsterisk},
		{"**", TAsteriskAsterisk},
		{"|", TBar},
		{"||", TBarBar},
		{"^", TCaret},
		{"}", TCloseBrace},
		{"]", TCloseBracket},
		{")", TCloseParen},
		{":", TColon},
		{",", TComma},
		{".", TDot},
		{"...", TDotDotDot},
		{"==", TEqualsEquals},
		{"===", TEqualsEqualsEquals},
		{"=>", TEqualsGreaterThan},
		{"!", TExclamation},
		{"!=", TExclamationEquals},
		{"!==", TExclamationEqualsEquals},
		{">", TGreaterThan},
		{">=", TGreaterThanEquals},
		{">>", TGreaterThanGreaterThan},
		{">>>", TGreaterThanGreaterThanGreaterThan},
		{"<", TLessThan},
		{"<=", TLessThanEquals},
		{"<<", TLessThanLessThan},
		{"-", TMinus},
		{"--", TMinusMinus},
		{"{", TOpenBrace},
		{"[", TOpenBracket},
		{"(", TOpenParen},
		{"%", TPercent},
		{"+", TPlus},
		{"++", TPlusPlus},
		{"?", TQuestion},
		{"?.", TQuestionDot},
		{"?.5", TQuestion},
		{"??", TQuestionQuestion},
		{";", TSemicolon},
		{"/", TSlash},
		{"~", TTilde},

		// Assignments
		{"&&=", TAmpersandAmpersandEquals},
		{"&=", TAmpersandEquals},
		{"**=", TAsteriskAsteriskEquals},
		{"*=", TAsteriskEquals},
		{"||=", TBarBarEquals},
		{"|=", TBarEquals},
		{"^=", TCaretEquals},
		{"=", TEquals},
		{">>=", TGreaterThanGreaterThanEquals},
		{">>>=", TGreaterThanGreaterThanGreaterThanEquals},
		{"<<=", TLessThanLessThanEquals},
		{"-=", TMinusEquals},
		{"%=", TPercentEquals},
		{"+=", TPlusEquals},
		{"??=", TQuestionQuestionEquals},
		{"/=", TSlashEquals},

		// Identifiers
		{"x", TIdentifier},
		{"$", TIdentifier},
		{"_", TIdentifier},

		// Reserved words
		{"break", TBreak},
		{"case", TCase},
		{"catch", TCatch},
		{"class", TClass},
		{"const", TConst},
		{"continue", TContinue},
		{"debugger", TDebugger},
		{"default", TDefault},
		{"delete", TDelete},
		{"do", TDo},
		{"else", TElse},
		{"enum", TEnum},
		{"export", TExport},
		{"extends", TExtends},
		{"false", TFalse},
		{"finally", TFinally},
		{"for", TFor},
		{"function", TFunction},
		{"if", TIf},
		{"import", TImport},
		{"in", TIn},
		{"instanceof", TInstanceof},
		{"new", TNew},
		{"null", TNull},
		{"return", TReturn},
		{"super", TSuper},
		{"switch", TSwitch},
		{"this", TThis},
		{"throw", TThrow},
		{"true", TTrue},
		{"try", TTry},
		{"typeof", TTypeof},
		{"var", TVar},
		{"void", TVoid},
		{"while", TWhile},
		{"with", TWith},
	}

	for _, it := range expected {
		contents := it.contents
		token := it.token
		t.Run(fmt.Sprintf("%q", contents), func(t *testing.T) {
			lexer, _ := lexerForTest(contents)
			test.AssertEqual(t, lexer.Token, token)
		})
	}
}

func TestComment(t *testing.T) {
	expectLexerError(t, "/*", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/*/", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/**/", "")
	expectLexerError(t, "//", "")
}

func TestHashbang(t *testing.T) {
	expectHashbang(t, "#!/usr/bin/env node", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\n", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\nlet x", "#!/usr/bin/env node")
	expectLexerError(t, " #!/usr/bin/env node", "<stdin>: error: Syntax error \"#\"\n")
}

func expectHashbang(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, msgs := lexerForTest(contents)
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, THashbang)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestIdentifier(t *testing.T) {
	expectIdentifier(t, "_", "_")
	expectIdentifier(t, "$", "$")
	expectIdentifier(t, "test", "test")
	expectIdentifier(t, "t\\u0065st", "test")
	expectIdentifier(t, "t\\u{65}st", "test")
	expectIdentifier(t, "日本語", "日本語")

	expectLexerError(t, "t\\u65st", "<stdin>: error: Syntax error \"s\"\n")
	expectLexerError(t, "t\\u{}st", "<stdin>: error: Syntax error \"}\"\n")
	expectLexerError(t, "t\\u", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "t\\x65st", "<stdin>: error: Syntax error \"x\"\n")
}

func TestNumericLiteral(t *testing.T) {
	expectNumber(t, "0", 0)
	expectNumber(t, "123", 123)
	expectNumber(t, "987654321", 987654321)
	expectNumber(t, "9876543210", 9876543210)
	expectNumber(t, "123.456", 123.456)
	expectNumber(t, ".123", 0.123)
	expectNumber(t, "1e3", 1000)
	expectNumber(t, "1E3", 1000)
	expectNumber(t, "1e-3", 0.001)
	expectNumber(t, "1.5e2", 150)

	// Binary, octal, and hexadecimal literals
	expectNumber(t, "0b1011", 11)
	expectNumber(t, "0B1011", 11)
	expectNumber(t, "0o755", 493)
	expectNumber(t, "0O755", 493)
	expectNumber(t, "0x100", 256)
	expectNumber(t, "0XABCDEF", 11259375)
	expectNumber(t, "0xabcdef", 11259375)

	// Legacy octal literals
	expectNumber(t, "010", 8)
	expectNumber(t, "0123", 83)
	expectNumber(t, "08", 8)
	expectNumber(t, "09.5", 9.5)

	// Numeric separators
	expectNumber(t, "1_000_000", 1000000)
	expectNumber(t, "1_000.5", 1000.5)
	expectNumber(t, "0x10_00", 4096)

	expectLexerError(t, "1__2", "<stdin>: error: Syntax error \"_\"\n")
	expectLexerError(t, "1_", "<stdin>: error: Syntax error \"_\"\n")
	expectLexerError(t, "0b", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "0b2", "<stdin>: error: Syntax error \"2\"\n")
	expectLexerError(t, "0o8", "<stdin>: error: Syntax error \"8\"\n")
	expectLexerError(t, "1e", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "123a", "<stdin>: error: Syntax error \"a\"\n")
	expectLexerError(t, "123n", "<stdin>: error: Big integer literals are not supported\n")
	expectLexerError(t, "0x1n", "<stdin>: error: Big integer literals are not supported\n")
}

func TestStringLiteral(t *testing.T) {
	expectString(t, "'abc'", "abc")
	expectString(t, "\"abc\"", "abc")
	expectString(t, "''", "")
	expectString(t, "'\\n'", "\n")
	expectString(t, "'\\t'", "\t")
	expectString(t, "'\\x41'", "A")
	expectString(t, "'\\u0041'", "A")
	expectString(t, "'\\u{1F600}'", "\U0001F600")
	expectString(t, "'\\101'", "A")
	expectString(t, "'\\''", "'")
	expectString(t, "'\"'", "\"")
	expectString(t, "'日本語'", "日本語")

	// A line continuation is not an escaped newline
	expectString(t, "'a\\\nb'", "ab")
	expectString(t, "'a\\\rb'", "ab")
	expectString(t, "'a\\\r\nb'", "ab")

	expectLexerError(t, "'abc", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "'a\nb'", "<stdin>: error: Unterminated string literal\n")
	expectLexerError(t, "'a\rb'", "<stdin>: error: Unterminated string literal\n")
}

func TestTemplateLiteral(t *testing.T) {
	t.Run("`abc`", func(t *testing.T) {
		lexer, msgs := lexerForTest("`abc`")
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TNoSubstitutionTemplateLiteral)
		test.AssertEqual(t, UTF16ToString(lexer.StringLiteral), "abc")
	})

	// Template literals can contain newlines but CRLF is normalized to LF
	t.Run("`a\r\nb`", func(t *testing.T) {
		lexer, msgs := lexerForTest("`a\r\nb`")
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TNoSubstitutionTemplateLiteral)
		test.AssertEqual(t, UTF16ToString(lexer.StringLiteral), "a\nb")
	})

	t.Run("`a${b}c`", func(t *testing.T) {
		lexer, msgs := lexerForTest("`a${b}c`")
		test.AssertEqual(t, len(msgs), 0)
		test.AssertEqual(t, lexer.Token, TTemplateHead)
		test.AssertEqual(t, UTF16ToString(lexer.StringLiteral), "a")
	})
}

func TestRangeOfIdentifier(t *testing.T) {
	source := test.SourceForTest("let foo = bar;")
	r := RangeOfIdentifier(source, logger.Loc{Start: 4})
	test.AssertEqual(t, r.Loc.Start, int32(4))
	test.AssertEqual(t, r.Len, int32(3))
}

func TestIsIdentifier(t *testing.T) {
	test.AssertEqual(t, IsIdentifier("foo"), true)
	test.AssertEqual(t, IsIdentifier("$foo"), true)
	test.AssertEqual(t, IsIdentifier("_foo"), true)
	test.AssertEqual(t, IsIdentifier("foo123"), true)
	test.AssertEqual(t, IsIdentifier("日本語"), true)
	test.AssertEqual(t, IsIdentifier(""), false)
	test.AssertEqual(t, IsIdentifier("123foo"), false)
	test.AssertEqual(t, IsIdentifier("foo bar"), false)
	test.AssertEqual(t, IsIdentifier("foo-bar"), false)
}

func TestUTF16(t *testing.T) {
	test.AssertEqual(t, UTF16ToString(StringToUTF16("abc")), "abc")
	test.AssertEqual(t, UTF16ToString(StringToUTF16("日本語")), "日本語")
	test.AssertEqual(t, UTF16ToString(StringToUTF16("\U0001F600")), "\U0001F600")

	test.AssertEqual(t, UTF16EqualsString(StringToUTF16("abc"), "abc"), true)
	test.AssertEqual(t, UTF16EqualsString(StringToUTF16("abc"), "abd"), false)
	test.AssertEqual(t, UTF16EqualsString(StringToUTF16("abc"), "ab"), false)
	test.AssertEqual(t, UTF16EqualsString(StringToUTF16("\U0001F600"), "\U0001F600"), true)

	test.AssertEqual(t, UTF16EqualsUTF16(StringToUTF16("abc"), StringToUTF16("abc")), true)
	test.AssertEqual(t, UTF16EqualsUTF16(StringToUTF16("abc"), StringToUTF16("abd")), false)
}
