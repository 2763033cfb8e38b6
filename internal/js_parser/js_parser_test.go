package js_parser

import (
	"testing"

	"github.com/actionc/actionc/internal/js_printer"
	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/test"
)

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		Parse(log, test.SourceForTest(contents))
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, expected)
	})
}

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := Parse(log, test.SourceForTest(contents))
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			if msg.Kind != logger.Warning {
				text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
			}
		}
		test.AssertEqualWithDiff(t, text, "")
		if !ok {
			t.Fatal("Parse error")
		}
		js := js_printer.Print(tree, js_printer.Options{}).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func TestUnexpectedToken(t *testing.T) {
	expectParseError(t, "}", "<stdin>: error: Unexpected \"}\"\n")
	expectParseError(t, "1 +", "<stdin>: error: Unexpected end of file\n")
	expectParseError(t, "x\n=> 0", "<stdin>: error: Unexpected newline before \"=>\"\n")
	expectParseError(t, "new.target", "<stdin>: error: Unexpected \".\"\n")
}

func TestDirectives(t *testing.T) {
	expectPrinted(t, "'use strict'", "\"use strict\";\n")
	expectPrinted(t, "'use strict'; 'use server'; x", "\"use strict\";\n\"use server\";\nx;\n")
	expectPrinted(t, "'use\\x20server'", "\"use server\";\n")
	expectPrinted(t, "function f() { 'use server'; return 0 }", "function f() {\n  \"use server\";\n  return 0;\n}\n")

	// Only the directive prologue is treated specially
	expectPrinted(t, "x; 'use strict'", "x;\n\"use strict\";\n")

	// A template literal is never a directive
	expectPrinted(t, "`use server`", "`use server`;\n")
}

func TestHashbang(t *testing.T) {
	expectPrinted(t, "#!/usr/bin/env node\nlet x", "#!/usr/bin/env node\nlet x;\n")
	expectPrinted(t, "#!/usr/bin/env node\n'use server'", "#!/usr/bin/env node\n\"use server\";\n")
}

func TestASI(t *testing.T) {
	expectParseError(t, "function f() { return\n0 }",
		"<stdin>: warning: The following expression is not returned because of an automatically-inserted semicolon\n")
	expectParseError(t, "function f() { return;\n0 }", "")
	expectPrinted(t, "function f() { return\n0 }", "function f() {\n  return;\n  0;\n}\n")
	expectPrinted(t, "x\n++\ny", "x;\n++y;\n")
	expectPrinted(t, "async\nfunction f() {}", "async;\nfunction f() {\n}\n")
}

func TestReturn(t *testing.T) {
	expectParseError(t, "return", "<stdin>: error: A return statement cannot be used here\n")
	expectParseError(t, "if (1) return 0", "<stdin>: error: A return statement cannot be used here\n")
	expectPrinted(t, "function f() { return }", "function f() {\n  return;\n}\n")
	expectPrinted(t, "function f() { return 1 + 2 }", "function f() {\n  return 1 + 2;\n}\n")
	expectPrinted(t, "() => { return 0 }", "() => {\n  return 0;\n};\n")
}

func TestThrow(t *testing.T) {
	expectParseError(t, "throw\n0", "<stdin>: error: Unexpected newline after \"throw\"\n")
	expectPrinted(t, "throw 0", "throw 0;\n")
	expectPrinted(t, "throw new Error('x')", "throw new Error(\"x\");\n")
}

func TestDeclarations(t *testing.T) {
	expectParseError(t, "let x; let x", "<stdin>: error: The symbol \"x\" has already been declared\n")
	expectParseError(t, "let x; var x", "<stdin>: error: The symbol \"x\" has already been declared\n")
	expectParseError(t, "const x = 0; function x() {}", "<stdin>: error: The symbol \"x\" has already been declared\n")
	expectParseError(t, "let x; { var x }", "<stdin>: error: The symbol \"x\" has already been declared\n")

	// "var" and function declarations merge with themselves
	expectPrinted(t, "var x; var x", "var x;\nvar x;\n")
	expectPrinted(t, "function f() {} function f() {}", "function f() {\n}\nfunction f() {\n}\n")
	expectPrinted(t, "var x; { let x }", "var x;\n{\n  let x;\n}\n")

	expectPrinted(t, "var a = 1, b = 2", "var a = 1, b = 2;\n")
	expectPrinted(t, "export let a", "export let a;\n")
}

func TestConst(t *testing.T) {
	expectParseError(t, "const x", "<stdin>: error: The constant \"x\" must be initialized\n")
	expectParseError(t, "const {}", "<stdin>: error: This constant must be initialized\n")
	expectPrinted(t, "const x = 0", "const x = 0;\n")
	expectPrinted(t, "const {} = x", "const {} = x;\n")
	expectPrinted(t, "for (const x in y) ;", "for (const x in y)\n  ;\n")
	expectPrinted(t, "for (const x of y) ;", "for (const x of y)\n  ;\n")
	expectParseError(t, "for (const x;;) ;", "<stdin>: error: The constant \"x\" must be initialized\n")
}

func TestSingleStatementContext(t *testing.T) {
	expectParseError(t, "if (1) let x = 0", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "if (1) const x = 0", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "if (1) class C {}", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "if (1) function f() {}", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "for (;;) function f() {}", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectPrinted(t, "if (1) var x = 0", "if (1)\n  var x = 0;\n")
}

func TestBinding(t *testing.T) {
	expectPrinted(t, "let [a, b] = c", "let [a, b] = c;\n")
	expectPrinted(t, "let [a, [b, c]] = d", "let [a, [b, c]] = d;\n")
	expectPrinted(t, "let [, , a] = b", "let [, , a] = b;\n")
	expectPrinted(t, "let [a, ,] = b", "let [a, ,] = b;\n")
	expectPrinted(t, "let [a = 1, ...rest] = b", "let [a = 1, ...rest] = b;\n")
	expectPrinted(t, "let {a} = b", "let { a } = b;\n")
	expectPrinted(t, "let {a = 1} = b", "let { a = 1 } = b;\n")
	expectPrinted(t, "let {a: b} = c", "let { a: b } = c;\n")
	expectPrinted(t, "let {[a]: b} = c", "let { [a]: b } = c;\n")
	expectPrinted(t, "let {...a} = b", "let { ...a } = b;\n")
	expectPrinted(t, "const {a, b: c = 3} = d", "const { a, b: c = 3 } = d;\n")

	expectParseError(t, "let [...a, b] = c", "<stdin>: error: Unexpected \",\" after rest pattern\n")
	expectParseError(t, "let {...a, b} = c", "<stdin>: error: Unexpected \",\" after rest pattern\n")
}

func TestFor(t *testing.T) {
	expectPrinted(t, "for (;;) ;", "for (; ; )\n  ;\n")
	expectPrinted(t, "for (let i = 0; i < 10; i++) f()", "for (let i = 0; i < 10; i++)\n  f();\n")
	expectPrinted(t, "for (x in y) ;", "for (x in y)\n  ;\n")
	expectPrinted(t, "for (x of y) ;", "for (x of y)\n  ;\n")
	expectPrinted(t, "for (let x of y) z()", "for (let x of y)\n  z();\n")

	expectParseError(t, "for (let a, b in c) ;", "<stdin>: error: for-in loops must have a single declaration\n")
	expectParseError(t, "for (let a, b of c) ;", "<stdin>: error: for-of loops must have a single declaration\n")
	expectParseError(t, "for (let a = 0 in b) ;", "<stdin>: error: for-in loop variables cannot have an initializer\n")
	expectParseError(t, "for (var [a] = 0 in b) ;", "<stdin>: error: for-in loop variables cannot have an initializer\n")

	// Initializers are allowed in "var" statements with identifier bindings
	expectPrinted(t, "for (var x = 0 in y) ;", "for (var x = 0 in y)\n  ;\n")
}

func TestForAwait(t *testing.T) {
	expectPrinted(t, "for await (x of y) ;", "for await (x of y)\n  ;\n")
	expectPrinted(t, "async function f() { for await (x of y) z() }",
		"async function f() {\n  for await (x of y)\n    z();\n}\n")
	expectParseError(t, "function f() { for await (x of y) ; }",
		"<stdin>: error: Cannot use \"await\" outside an async function\n")
	expectParseError(t, "for await (x in y) ;", "<stdin>: error: Expected \"of\" but found \"in\"\n")
}

func TestFunction(t *testing.T) {
	expectPrinted(t, "function f() {}", "function f() {\n}\n")
	expectPrinted(t, "function f(a = 1, ...rest) {}", "function f(a = 1, ...rest) {\n}\n")
	expectPrinted(t, "function f({a}, [b]) {}", "function f({ a }, [b]) {\n}\n")
	expectParseError(t, "function f(...a, b) {}", "<stdin>: error: Expected \")\" but found \",\"\n")

	// "await" and "yield" are allowed argument names
	expectPrinted(t, "function f(await) {}", "function f(await) {\n}\n")
	expectPrinted(t, "function* f(yield) {}", "function* f(yield) {\n}\n")
}

func TestGenerator(t *testing.T) {
	expectPrinted(t, "function* f() {}", "function* f() {\n}\n")
	expectPrinted(t, "function *f() {}", "function* f() {\n}\n")
	expectPrinted(t, "function* f() { yield }", "function* f() {\n  yield;\n}\n")
	expectPrinted(t, "function* f() { yield x }", "function* f() {\n  yield x;\n}\n")
	expectPrinted(t, "function* f() { yield* x }", "function* f() {\n  yield* x;\n}\n")
	expectPrinted(t, "function* f() { x = yield }", "function* f() {\n  x = yield;\n}\n")
	expectParseError(t, "function* f() { 1 + yield }",
		"<stdin>: error: Cannot use a \"yield\" expression here without parentheses\n")
	expectParseError(t, "function* f() { yi\\u0065ld }", "<stdin>: error: The keyword \"yield\" cannot be escaped\n")
	expectParseError(t, "function* f() { let yield }", "<stdin>: error: Cannot use \"yield\" as an identifier here\n")
	expectParseError(t, "function* f() { ({yield}) }", "<stdin>: error: Cannot use \"yield\" as an identifier here\n")
}

func TestAwait(t *testing.T) {
	// Top-level await is allowed in modules
	expectPrinted(t, "await x", "await x;\n")
	expectPrinted(t, "async function f() { await 0 }", "async function f() {\n  await 0;\n}\n")
	expectParseError(t, "let await", "<stdin>: error: Cannot use \"await\" as an identifier here\n")
	expectParseError(t, "({await})", "<stdin>: error: Cannot use \"await\" as an identifier here\n")
	expectParseError(t, "async function f() { aw\\u0061it }", "<stdin>: error: The keyword \"await\" cannot be escaped\n")

	// "await" is a plain identifier inside a non-async function
	expectPrinted(t, "function f() { await }", "function f() {\n  await;\n}\n")
	expectPrinted(t, "function f() { ({await} = x) }", "function f() {\n  ({ await } = x);\n}\n")
	expectParseError(t, "function f() { await x }", "<stdin>: error: Expected \";\" but found \"x\"\n")
}

func TestArrow(t *testing.T) {
	expectPrinted(t, "({a, b: c, ...rest}) => {}", "({ a, b: c, ...rest }) => {\n};\n")
	expectParseError(t, "(...a = b) => {}", "<stdin>: error: A rest argument cannot have a default initializer\n")
	expectParseError(t, "(...a)", "<stdin>: error: Unexpected \"...\"\n")
	expectParseError(t, "(1) => {}", "<stdin>: error: Invalid binding pattern\n")
	expectParseError(t, "({get x() {}}) => {}", "<stdin>: error: Invalid binding pattern\n")
}

func TestObject(t *testing.T) {
	expectParseError(t, "({get x(y) {}})", "<stdin>: error: Getter \"x\" must have zero arguments\n")
	expectParseError(t, "({get [x](y) {}})", "<stdin>: error: Getter property must have zero arguments\n")
	expectParseError(t, "({set x() {}})", "<stdin>: error: Setter \"x\" must have exactly one argument\n")
	expectParseError(t, "({set x(a, b) {}})", "<stdin>: error: Setter \"x\" must have exactly one argument\n")

	// "yield" is a valid shorthand name outside generators
	expectPrinted(t, "({yield})", "({ yield });\n")
}

func TestClass(t *testing.T) {
	expectPrinted(t, "class C {}", "class C {\n}\n")
	expectPrinted(t, "class C { static foo() {} }", "class C {\n  static foo() {\n  }\n}\n")
	expectPrinted(t, "class C { x = 1; static y }", "class C {\n  x = 1;\n  static y;\n}\n")
	expectPrinted(t, "class C extends D { constructor() { super() } }",
		"class C extends D {\n  constructor() {\n    super();\n  }\n}\n")
	expectPrinted(t, "class C extends D { foo() { return super.foo() } }",
		"class C extends D {\n  foo() {\n    return super.foo();\n  }\n}\n")
	expectPrinted(t, "class C { static ['prototype']() {} }", "class C {\n  static [\"prototype\"]() {\n  }\n}\n")
	expectPrinted(t, "export class C {}", "export class C {\n}\n")

	expectParseError(t, "class C { get constructor() {} }", "<stdin>: error: Class constructor cannot be a getter\n")
	expectParseError(t, "class C { set constructor(x) {} }", "<stdin>: error: Class constructor cannot be a setter\n")
	expectParseError(t, "class C { async constructor() {} }", "<stdin>: error: Class constructor cannot be an async function\n")
	expectParseError(t, "class C { *constructor() {} }", "<stdin>: error: Class constructor cannot be a generator\n")
	expectParseError(t, "class C { static prototype() {} }", "<stdin>: error: Invalid static method name \"prototype\"\n")
	expectParseError(t, "class C { get x(y) {} }", "<stdin>: error: Getter \"x\" must have zero arguments\n")
}

func TestSuper(t *testing.T) {
	expectParseError(t, "super", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "super()", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "class C { constructor() { super() } }", "<stdin>: error: Unexpected \"super\"\n")
}

func TestIf(t *testing.T) {
	expectPrinted(t, "if (a) b(); else c()", "if (a)\n  b();\nelse\n  c();\n")
	expectPrinted(t, "if (1) a(); else if (2) b(); else c()", "if (1)\n  a();\nelse if (2)\n  b();\nelse\n  c();\n")
	expectPrinted(t, "if (a) {} else {}", "if (a) {\n} else {\n}\n")
	expectPrinted(t, "if (a) b(); else {}", "if (a)\n  b();\nelse {\n}\n")
	expectPrinted(t, "if (a) if (b) c(); else d()", "if (a)\n  if (b)\n    c();\n  else\n    d();\n")
}

func TestWhile(t *testing.T) {
	expectPrinted(t, "while (x) y()", "while (x)\n  y();\n")
	expectPrinted(t, "while (x) {}", "while (x) {\n}\n")
	expectPrinted(t, "do x(); while (y)", "do\n  x();\nwhile (y);\n")
	expectPrinted(t, "do {} while (y)", "do {\n} while (y);\n")
}

func TestTry(t *testing.T) {
	expectPrinted(t, "try { a() } catch (e) { b() } finally { c() }",
		"try {\n  a();\n} catch (e) {\n  b();\n} finally {\n  c();\n}\n")
	expectPrinted(t, "try { a() } catch {}", "try {\n  a();\n} catch {\n}\n")
	expectPrinted(t, "try {} finally {}", "try {\n} finally {\n}\n")
	expectPrinted(t, "try {} catch ([a, b]) {}", "try {\n} catch ([a, b]) {\n}\n")
	expectParseError(t, "try {}", "<stdin>: error: Expected \"catch\" but found end of file\n")

	// The catch binding shares a scope with the catch body
	expectPrinted(t, "try {} catch (e) { var e }", "try {\n} catch (e) {\n  var e;\n}\n")
	expectParseError(t, "try {} catch (e) { let e }", "<stdin>: error: The symbol \"e\" has already been declared\n")
}

func TestSwitch(t *testing.T) {
	expectPrinted(t, "switch (x) { case 1: a(); break; default: b() }",
		"switch (x) {\n  case 1:\n    a();\n    break;\n  default:\n    b();\n}\n")
	expectPrinted(t, "switch (x) { case 1: { a(); break } }",
		"switch (x) {\n  case 1: {\n    a();\n    break;\n  }\n}\n")
	expectParseError(t, "switch (x) { default: default: }", "<stdin>: error: Multiple default clauses are not allowed\n")
}

func TestWith(t *testing.T) {
	expectParseError(t, "with (x) y", "<stdin>: error: With statements cannot be used in an ECMAScript module\n")
}

func TestLabels(t *testing.T) {
	expectPrinted(t, "x: for (;;) break x", "x:\n  for (; ; )\n    break x;\n")
	expectPrinted(t, "y: while (0) continue y", "y:\n  while (0)\n    continue y;\n")
	expectPrinted(t, "x: y: z()", "x:\n  y:\n    z();\n")
	expectPrinted(t, "foo: {}", "foo: {\n}\n")
	expectPrinted(t, "for (;;) break", "for (; ; )\n  break;\n")
	expectParseError(t, "break x", "<stdin>: error: There is no containing label named \"x\"\n")
	expectParseError(t, "x: { break y }", "<stdin>: error: There is no containing label named \"y\"\n")
}

func TestImport(t *testing.T) {
	expectPrinted(t, "import 'path'", "import \"path\";\n")
	expectPrinted(t, "import x from 'path'", "import x from \"path\";\n")
	expectPrinted(t, "import * as ns from 'path'", "import * as ns from \"path\";\n")
	expectPrinted(t, "import {} from 'path'", "import {} from \"path\";\n")
	expectPrinted(t, "import {a, b as c} from 'path'", "import { a, b as c } from \"path\";\n")
	expectPrinted(t, "import x, {y} from 'path'", "import x, { y } from \"path\";\n")
	expectPrinted(t, "import x, * as ns from 'path'", "import x, * as ns from \"path\";\n")
	expectPrinted(t, "import {default as x} from 'path'", "import { default as x } from \"path\";\n")
	expectPrinted(t, "import {\n  a,\n  b\n} from 'path'", "import {\n  a,\n  b\n} from \"path\";\n")

	expectParseError(t, "import {default} from 'path'", "<stdin>: error: Expected \"as\" but found \"}\"\n")
	expectParseError(t, "if (1) import 'path'", "<stdin>: error: Unexpected \"'path'\"\n")

	// An import expression is allowed in nested scopes
	expectPrinted(t, "if (1) import('path')", "if (1)\n  import(\"path\");\n")
}

func TestImportExpr(t *testing.T) {
	expectPrinted(t, "import.meta", "import.meta;\n")
	expectPrinted(t, "import.meta.url", "import.meta.url;\n")
	expectParseError(t, "new import('x')", "<stdin>: error: Cannot use an \"import\" expression here without parentheses\n")
}

func TestExport(t *testing.T) {
	expectPrinted(t, "export {}", "export {};\n")
	expectPrinted(t, "let a; export {a}", "let a;\nexport { a };\n")
	expectPrinted(t, "let a; export {a as b}", "let a;\nexport { a as b };\n")
	expectPrinted(t, "let a; export {a as default}", "let a;\nexport { a as default };\n")
	expectPrinted(t, "export {a} from 'path'", "export { a } from \"path\";\n")
	expectPrinted(t, "export {default} from 'path'", "export { default } from \"path\";\n")
	expectPrinted(t, "export {default as x} from 'path'", "export { default as x } from \"path\";\n")
	expectPrinted(t, "export * from 'path'", "export * from \"path\";\n")
	expectPrinted(t, "export * as ns from 'path'", "export * as ns from \"path\";\n")
	expectPrinted(t, "export var a = 1", "export var a = 1;\n")
	expectPrinted(t, "export const a = 1", "export const a = 1;\n")
	expectPrinted(t, "export function f() {}", "export function f() {\n}\n")
	expectPrinted(t, "export async function f() {}", "export async function f() {\n}\n")

	expectParseError(t, "export {default}", "<stdin>: error: Expected identifier but found \"default\"\n")
	expectParseError(t, "export {x}", "<stdin>: error: \"x\" is not declared in this file\n")
	expectParseError(t, "let a; export {a, a}", "<stdin>: error: Multiple exports with the same name \"a\"\n")
	expectParseError(t, "export default 0; export default 1",
		"<stdin>: error: Multiple exports with the same name \"default\"\n")
	expectParseError(t, "export async\nfunction f() {}", "<stdin>: error: Unexpected newline after \"async\"\n")
	expectParseError(t, "if (1) export let a = 0", "<stdin>: error: Unexpected \"export\"\n")
}

func TestOptionalChain(t *testing.T) {
	expectParseError(t, "a?.b``", "<stdin>: error: Template literals cannot have an optional chain as a tag\n")
	expectParseError(t, "a?.b`${c}`", "<stdin>: error: Template literals cannot have an optional chain as a tag\n")
}
