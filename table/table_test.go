package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tbl := New(Column{Header: "PID", Right: true}, Column{Header: "NAME"})
	tbl.AddRow("4", "System")
	tbl.AddRow("1234", "")

	var out bytes.Buffer
	require.NoError(t, tbl.Render(&out))
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, ""+
		" PID NAME\n"+
		"---- ------\n"+
		"   4 System\n"+
		"1234 -\n", out.String())
}

func TestRenderIgnoresEscapesInWidth(t *testing.T) {
	red := func(s string) string { return "\033[31m" + s + "\033[0m" }
	tbl := New(Column{Header: "A", Format: red}, Column{Header: "B"})
	tbl.AddRow("xy", "z")

	var out bytes.Buffer
	require.NoError(t, tbl.Render(&out))
	assert.Equal(t, "A  B\n-- -\n\033[31mxy\033[0m z\n", out.String())
	assert.Equal(t, 2, visibleLength(red("xy")))
}
