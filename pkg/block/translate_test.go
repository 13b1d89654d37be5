package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/block"
	"github.com/braceless-cpp/blcc/pkg/logicalline"
)

func translate(t *testing.T, src string) string {
	t.Helper()
	lines := logicalline.Group([]byte(src))
	res, err := block.Translate(lines, 4)
	require.NoError(t, err)
	return res.Text()
}

func TestTranslateIfElseGetsBracedAndParenthesized(t *testing.T) {
	out := translate(t, "if x > 0:\n    foo()\nelse:\n    bar()\n")
	assert.Equal(t, "if (x > 0) {\n    foo();\n} else {\n    bar();\n}\n", out)
}

func TestTranslateAlreadyParenthesizedConditionNotDoubleWrapped(t *testing.T) {
	out := translate(t, "if (x > 0):\n    foo()\n")
	assert.Equal(t, "if (x > 0) {\n    foo();\n}\n", out)
}

func TestTranslatePartiallyWrappedConditionGetsRewrapped(t *testing.T) {
	out := translate(t, "if (a) && b:\n    foo()\n")
	assert.Equal(t, "if ((a) && b) {\n    foo();\n}\n", out)
}

func TestTranslateWhileLoop(t *testing.T) {
	out := translate(t, "while i < 10:\n    i = i + 1\n")
	assert.Equal(t, "while (i < 10) {\n    i = i + 1;\n}\n", out)
}

func TestTranslateDoWhile(t *testing.T) {
	out := translate(t, "do:\n    i = i + 1\nwhile i < 10\n")
	assert.Equal(t, "do {\n    i = i + 1;\n} while (i < 10);\n", out)
}

func TestTranslateClassWithAccessSpecifiers(t *testing.T) {
	src := "class Foo:\n    public:\n        int x\n    private:\n        int y\n"
	out := translate(t, src)
	assert.Equal(t, "class Foo {\n    public:\n        int x;\n    private:\n        int y;\n};\n", out)
}

func TestTranslateSwitchCase(t *testing.T) {
	src := "switch x:\n    case 1:\n        foo()\n    default:\n        bar()\n"
	out := translate(t, src)
	assert.Equal(t, "switch (x) {\n    case 1:\n        foo();\n    default:\n        bar();\n}\n", out)
}

func TestTranslatePassIsNoOp(t *testing.T) {
	out := translate(t, "if x:\n    pass\n")
	assert.Equal(t, "if (x) {\n}\n", out)
}

func TestTranslateAuthorWrittenBraceIsNotDoubleClosed(t *testing.T) {
	out := translate(t, "if x {\n    foo()\n}\n")
	assert.Equal(t, "if (x) {\n    foo();\n}\n", out)
}

func TestTranslateBlankLineBetweenStatementsPreserved(t *testing.T) {
	out := translate(t, "if x:\n    foo()\n\n    bar()\n")
	assert.Equal(t, "if (x) {\n    foo();\n\n    bar();\n}\n", out)
}

func TestTranslateBracelessLambdaClosesWithSemicolon(t *testing.T) {
	out := translate(t, "auto f = [x](int y):\n    return x + y\n")
	assert.Equal(t, "auto f = [x](int y) {\n    return x + y;\n};\n", out)
}

func TestTranslateBraceInitializerGetsSemicolon(t *testing.T) {
	out := translate(t, "int arr[] = {1, 2, 3}\n")
	assert.Equal(t, "int arr[] = {1, 2, 3};\n", out)
}
