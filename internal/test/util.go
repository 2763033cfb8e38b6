package test

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/actionc/actionc/internal/logger"
)

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%v != %v", observed, expected)
	}
}

func AssertEqualWithDiff(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		stringA := fmt.Sprintf("%v", observed)
		stringB := fmt.Sprintf("%v", expected)
		if strings.Contains(stringA, "\n") || strings.Contains(stringB, "\n") {
			color := logger.GetTerminalInfo(os.Stdout).UseColorEscapes
			t.Fatal("\n" + Diff(stringB, stringA, color))
		} else {
			t.Fatalf("%v != %v", observed, expected)
		}
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		Index:          0,
		PrettyPath:     "<stdin>",
		IdentifierName: "stdin",
		Contents:       contents,
	}
}
