package api

import (
	"strings"
	"testing"

	"github.com/actionc/actionc/internal/test"
)

func TestTransformPassthrough(t *testing.T) {
	result := Transform(TransformOptions{Contents: "let x = 1"})
	test.AssertEqual(t, len(result.Errors), 0)
	test.AssertEqual(t, len(result.Warnings), 0)
	test.AssertEqual(t, result.HasAction, false)
	test.AssertEqual(t, len(result.Actions), 0)
	test.AssertEqual(t, result.Code, "let x = 1;\n")
}

func TestTransformActionFile(t *testing.T) {
	result := Transform(TransformOptions{
		Sourcefile: "app/actions.js",
		Contents: `"use server";

export async function like(post) {
  return db.like(post);
}
`,
		IsServer: true,
	})
	test.AssertEqual(t, len(result.Errors), 0)
	test.AssertEqual(t, result.HasAction, true)
	test.AssertEqual(t, len(result.Actions), 1)
	test.AssertEqual(t, result.Actions[0].Name, "like")
	test.AssertEqual(t, result.Actions[0].ID, ActionID("app/actions.js", "like"))

	if !strings.HasPrefix(result.Code, "/* __next_internal_action_entry_do_not_use__ like */\n") {
		t.Fatalf("Expected the marker comment first, got:\n%s", result.Code)
	}
	if !strings.Contains(result.Code, "like.$$id = \""+result.Actions[0].ID+"\";\n") {
		t.Fatalf("Expected an $$id annotation, got:\n%s", result.Code)
	}
}

func TestTransformDefaultSourcefile(t *testing.T) {
	result := Transform(TransformOptions{
		Contents: "async function go() {\n  \"use server\";\n  return 1;\n}",
	})
	test.AssertEqual(t, len(result.Errors), 0)
	test.AssertEqual(t, result.HasAction, true)
	test.AssertEqual(t, len(result.Actions), 1)
	test.AssertEqual(t, result.Actions[0].ID, ActionID("<stdin>", "$ACTION_go"))
}

func TestTransformReportsShapeErrors(t *testing.T) {
	result := Transform(TransformOptions{
		Contents: `"use server";

export function sync() {
  return 1;
}
`,
	})
	test.AssertEqual(t, len(result.Errors), 1)
	test.AssertEqual(t, result.Errors[0].Text, "Server actions must be async functions")
	if result.Errors[0].Location == nil {
		t.Fatal("Expected a location on the diagnostic")
	}
	test.AssertEqual(t, result.Errors[0].Location.File, "<stdin>")
}

func TestTransformSyntaxError(t *testing.T) {
	result := Transform(TransformOptions{Contents: "let x = ("})
	if len(result.Errors) == 0 {
		t.Fatal("Expected a syntax error")
	}
	test.AssertEqual(t, result.Code, "")
	test.AssertEqual(t, result.HasAction, false)
}
