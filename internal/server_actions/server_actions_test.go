package server_actions

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/actionc/actionc/internal/js_parser"
	"github.com/actionc/actionc/internal/js_printer"
	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/test"
)

func expectTransformed(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		source := test.SourceForTest(contents)
		tree, ok := js_parser.Parse(log, source)
		if !ok {
			t.Fatal("Parse error")
		}
		Transform(log, source, &tree, Config{})
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			if msg.Kind != logger.Warning {
				text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
			}
		}
		test.AssertEqualWithDiff(t, text, "")
		js := js_printer.Print(tree, js_printer.Options{}).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func expectTransformError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		source := test.SourceForTest(contents)
		tree, ok := js_parser.Parse(log, source)
		if !ok {
			t.Fatal("Parse error")
		}
		Transform(log, source, &tree, Config{})
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, expected)
	})
}

func TestActionID(t *testing.T) {
	sum := sha1.Sum([]byte("app/actions.js:default"))
	test.AssertEqual(t, ActionID("app/actions.js", "default"), hex.EncodeToString(sum[:]))
	test.AssertEqual(t, len(ActionID("<stdin>", "a")), 40)
	if ActionID("a.js", "x") == ActionID("a.js", "y") {
		t.Fatal("Expected distinct ids for distinct exports")
	}
	if ActionID("a.js", "x") == ActionID("b.js", "x") {
		t.Fatal("Expected distinct ids for distinct files")
	}
}

func TestNoActionPassthrough(t *testing.T) {
	expectTransformed(t, "let x = 1", "let x = 1;\n")
	expectTransformed(t, "function f() {\n  \"use strict\";\n  return 1;\n}",
		"function f() {\n  \"use strict\";\n  return 1;\n}\n")

	// Arrows are never classified outside of a "use server" file, so their
	// directives survive untouched.
	expectTransformed(t, "const f = async () => {\n  \"use server\";\n  return 1;\n};",
		"const f = async () => {\n  \"use server\";\n  return 1;\n};\n")

	// Same for anonymous function expressions.
	expectTransformed(t, "const f = async function() {\n  \"use server\";\n  return 1;\n};",
		"const f = async function() {\n  \"use server\";\n  return 1;\n};\n")

	// Methods never become actions.
	expectTransformed(t, "const obj = {\n  async go() {\n    \"use server\";\n    return 1;\n  }\n};",
		"const obj = {\n  async go() {\n    \"use server\";\n    return 1;\n  }\n};\n")
}

func TestTopLevelAction(t *testing.T) {
	id := ActionID("<stdin>", "$ACTION_like")
	expectTransformed(t,
		"async function like(post) {\n  \"use server\";\n  return db.like(post);\n}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_like */
async function like(post) {
  return db.like(post);
}
like.$$typeof = Symbol.for("react.server.reference");
like.$$id = "`+id+`";
like.$$bound = [];
export const $ACTION_like = like;
`)

	// An exported declaration still gets the "$ACTION_" alias when the module
	// itself has no "use server" directive.
	expectTransformed(t,
		"export async function like(post) {\n  \"use server\";\n  return db.like(post);\n}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_like */
export async function like(post) {
  return db.like(post);
}
like.$$typeof = Symbol.for("react.server.reference");
like.$$id = "`+id+`";
like.$$bound = [];
export const $ACTION_like = like;
`)
}

func TestHoistedAction(t *testing.T) {
	id := ActionID("<stdin>", "$ACTION_navigate")
	expectTransformed(t,
		"function Page({ params }) {\n"+
			"  const id = params.id;\n"+
			"  async function navigate() {\n"+
			"    \"use server\";\n"+
			"    return redirect(id);\n"+
			"  }\n"+
			"  return render(navigate);\n"+
			"}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_navigate */
function Page({ params }) {
  const id = params.id;
  async function navigate() {
    return $ACTION_navigate(navigate.$$bound);
  }
  navigate.$$typeof = Symbol.for("react.server.reference");
  navigate.$$id = "`+id+`";
  navigate.$$bound = [id];
  return render(navigate);
}
export async function $ACTION_navigate(closure) {
  return redirect(closure[0]);
}
`)
}

func TestHoistedActionMemberChain(t *testing.T) {
	id := ActionID("<stdin>", "$ACTION_update")
	expectTransformed(t,
		"function Form({ user }) {\n"+
			"  const info = user.profile;\n"+
			"  async function update() {\n"+
			"    \"use server\";\n"+
			"    return save(info.name, info.name, user);\n"+
			"  }\n"+
			"  return update;\n"+
			"}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_update */
function Form({ user }) {
  const info = user.profile;
  async function update() {
    return $ACTION_update(update.$$bound);
  }
  update.$$typeof = Symbol.for("react.server.reference");
  update.$$id = "`+id+`";
  update.$$bound = [info.name, user];
  return update;
}
export async function $ACTION_update(closure) {
  return save(closure[0], closure[0], closure[1]);
}
`)
}

func TestHoistedActionShorthandObject(t *testing.T) {
	id := ActionID("<stdin>", "$ACTION_act")
	expectTransformed(t,
		"function Page() {\n"+
			"  const value = compute();\n"+
			"  async function act() {\n"+
			"    \"use server\";\n"+
			"    send(value);\n"+
			"    return send({ value });\n"+
			"  }\n"+
			"  return act;\n"+
			"}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_act */
function Page() {
  const value = compute();
  async function act() {
    return $ACTION_act(act.$$bound);
  }
  act.$$typeof = Symbol.for("react.server.reference");
  act.$$id = "`+id+`";
  act.$$bound = [value];
  return act;
}
export async function $ACTION_act(closure) {
  send(closure[0]);
  return send({ value: closure[0] });
}
`)
}

func TestNestedActions(t *testing.T) {
	innerID := ActionID("<stdin>", "$ACTION_inner")
	outerID := ActionID("<stdin>", "$ACTION_outer")
	expectTransformed(t,
		"function Comp() {\n"+
			"  const a = 1;\n"+
			"  async function outer() {\n"+
			"    \"use server\";\n"+
			"    async function inner() {\n"+
			"      \"use server\";\n"+
			"      return use(a);\n"+
			"    }\n"+
			"    return inner;\n"+
			"  }\n"+
			"  return outer;\n"+
			"}",
		`/* __next_internal_action_entry_do_not_use__ $ACTION_inner,$ACTION_outer */
function Comp() {
  const a = 1;
  async function outer() {
    return $ACTION_outer(outer.$$bound);
  }
  outer.$$typeof = Symbol.for("react.server.reference");
  outer.$$id = "`+outerID+`";
  outer.$$bound = [a];
  return outer;
}
export async function $ACTION_inner(closure) {
  return use(closure[0]);
}
export async function $ACTION_outer(closure) {
  async function inner() {
    return $ACTION_inner(inner.$$bound);
  }
  inner.$$typeof = Symbol.for("react.server.reference");
  inner.$$id = "`+innerID+`";
  inner.$$bound = [closure[0]];
  return inner;
}
`)
}

func TestActionFileExportedFn(t *testing.T) {
	id := ActionID("<stdin>", "createUser")
	expectTransformed(t,
		"\"use server\";\nexport async function createUser(data) {\n  return db.insert(data);\n}",
		`/* __next_internal_action_entry_do_not_use__ createUser */
export async function createUser(data) {
  return db.insert(data);
}
createUser.$$typeof = Symbol.for("react.server.reference");
createUser.$$id = "`+id+`";
createUser.$$bound = [];
`)

	// A directive on the function itself is redundant and left in place.
	expectTransformed(t,
		"\"use server\";\nexport async function createUser(data) {\n  \"use server\";\n  return db.insert(data);\n}",
		`/* __next_internal_action_entry_do_not_use__ createUser */
export async function createUser(data) {
  "use server";
  return db.insert(data);
}
createUser.$$typeof = Symbol.for("react.server.reference");
createUser.$$id = "`+id+`";
createUser.$$bound = [];
`)
}

func TestActionFileExportClause(t *testing.T) {
	id := ActionID("<stdin>", "getUser")
	expectTransformed(t,
		"\"use server\";\nasync function getUser(id) {\n  return db.find(id);\n}\nexport { getUser };",
		`/* __next_internal_action_entry_do_not_use__ getUser */
async function getUser(id) {
  return db.find(id);
}
getUser.$$typeof = Symbol.for("react.server.reference");
getUser.$$id = "`+id+`";
getUser.$$bound = [];
export { getUser };
`)
}

func TestActionFileDefaultExport(t *testing.T) {
	id := ActionID("<stdin>", "default")

	expectTransformed(t,
		"\"use server\";\nexport default async function removeUser(id) {\n  return db.remove(id);\n}",
		`/* __next_internal_action_entry_do_not_use__ default */
export default async function removeUser(id) {
  return db.remove(id);
}
removeUser.$$typeof = Symbol.for("react.server.reference");
removeUser.$$id = "`+id+`";
removeUser.$$bound = [];
`)

	// Anonymous functions get a name so the annotations can refer to them.
	expectTransformed(t,
		"\"use server\";\nexport default async function(id) {\n  return db.remove(id);\n}",
		`/* __next_internal_action_entry_do_not_use__ default */
export default async function $ACTION_default_0(id) {
  return db.remove(id);
}
$ACTION_default_0.$$typeof = Symbol.for("react.server.reference");
$ACTION_default_0.$$id = "`+id+`";
$ACTION_default_0.$$bound = [];
`)

	// Arrows become an assignment to a hoisted var binding.
	expectTransformed(t,
		"\"use server\";\nexport default async (id) => {\n  return db.remove(id);\n};",
		`/* __next_internal_action_entry_do_not_use__ default */
export default $ACTION_default_0 = async (id) => {
  return db.remove(id);
};
$ACTION_default_0.$$typeof = Symbol.for("react.server.reference");
$ACTION_default_0.$$id = "`+id+`";
$ACTION_default_0.$$bound = [];
var $ACTION_default_0;
`)
}

func TestActionFileFnValue(t *testing.T) {
	editID := ActionID("<stdin>", "edit")
	expectTransformed(t,
		"\"use server\";\nexport const edit = async function(data) {\n  return save(data);\n};",
		`/* __next_internal_action_entry_do_not_use__ edit */
export const edit = async function $ACTION_fn_0(data) {
  return save(data);
};
edit.$$typeof = Symbol.for("react.server.reference");
edit.$$id = "`+editID+`";
edit.$$bound = [];
`)

	// The export may also come from a clause further down the module.
	sendID := ActionID("<stdin>", "send")
	expectTransformed(t,
		"\"use server\";\nconst send = async function(msg) {\n  return mail(msg);\n};\nexport { send };",
		`/* __next_internal_action_entry_do_not_use__ send */
const send = async function $ACTION_fn_0(msg) {
  return mail(msg);
};
send.$$typeof = Symbol.for("react.server.reference");
send.$$id = "`+sendID+`";
send.$$bound = [];
export { send };
`)
}

func TestActionFileEmptyMarker(t *testing.T) {
	// A "use server" module that never produces an action still gets marked.
	expectTransformed(t, "\"use server\";\nexport var channel;",
		"/* __next_internal_action_entry_do_not_use__  */\nexport var channel;\n")
}

func TestExportValidationErrors(t *testing.T) {
	errText := "<stdin>: error: Only async functions are allowed to be exported in a \"use server\" file.\n"

	expectTransformError(t, "\"use server\";\nexport const x = 1;", errText)
	expectTransformError(t, "\"use server\";\nexport class Foo {\n}", errText)
	expectTransformError(t, "\"use server\";\nexport * from \"./lib\";", errText)
	expectTransformError(t, "\"use server\";\nexport { x } from \"./lib\";", errText)
	expectTransformError(t, "\"use server\";\nexport default 123;", errText)
	expectTransformError(t, "\"use server\";\nexport default (x) => {\n};", errText)
	expectTransformError(t, "\"use server\";\nfunction f() {\n}\nexport { f };", errText)
	expectTransformError(t, "\"use server\";\nconst x = 1;\nexport { x };", errText)
	expectTransformError(t, "\"use server\";\nconst x = 1;\nexport default x;", errText)

	// One error per offending statement, no matter how many declarators.
	expectTransformError(t, "\"use server\";\nexport const a = 1, b = 2;", errText)
}

func TestNonAsyncActionErrors(t *testing.T) {
	errText := "<stdin>: error: Server actions must be async functions\n"

	expectTransformError(t, "function foo() {\n  \"use server\";\n}", errText)
	expectTransformError(t, "function Page() {\n  function helper() {\n    \"use server\";\n  }\n}", errText)
	expectTransformError(t, "\"use server\";\nexport function foo() {\n}", errText)
	expectTransformError(t, "\"use server\";\nexport const f = function g() {\n};", errText)
}

func TestTransformResult(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest(
		"\"use server\";\nexport async function a() {\n}\nexport default async function b() {\n}")
	tree, ok := js_parser.Parse(log, source)
	if !ok {
		t.Fatal("Parse error")
	}
	result := Transform(log, source, &tree, Config{IsServer: true})
	if msgs := log.Done(); len(msgs) != 0 {
		t.Fatalf("Expected no messages, got %d", len(msgs))
	}
	if !result.HasAction {
		t.Fatal("Expected HasAction to be set")
	}
	names := make([]string, len(result.Actions))
	for i, action := range result.Actions {
		names[i] = action.Name
	}
	test.AssertEqual(t, strings.Join(names, ","), "a,default")
	test.AssertEqual(t, result.Actions[0].ID, ActionID("<stdin>", "a"))
	test.AssertEqual(t, result.Actions[1].ID, ActionID("<stdin>", "default"))
}

func TestTransformResultEmpty(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("export const x = () => {\n};")
	tree, ok := js_parser.Parse(log, source)
	if !ok {
		t.Fatal("Parse error")
	}
	result := Transform(log, source, &tree, Config{})
	if msgs := log.Done(); len(msgs) != 0 {
		t.Fatalf("Expected no messages, got %d", len(msgs))
	}
	if result.HasAction {
		t.Fatal("Expected HasAction to be unset")
	}
	if len(result.Actions) != 0 {
		t.Fatalf("Expected no actions, got %d", len(result.Actions))
	}
}
