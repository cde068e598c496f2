package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetLines(t *testing.T) {
	var out bytes.Buffer

	got, err := GetLines(rdr("a\nb\n\nignored\n"), 3, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = GetLines(rdr("1\n2\n3\n4\n"), 3, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, got)

	got, err = GetLines(rdr("only"), 3, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)
}

func stubTerminal(t *testing.T, tty bool, pw []byte, err error) {
	t.Helper()
	oldRead, oldTTY := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTTY })

	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return pw, err }
}

func TestGetSecret_Terminal(t *testing.T) {
	stubTerminal(t, true, []byte("s3cret"), nil)

	var out bytes.Buffer
	got, err := GetSecret(rdr(""), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetSecret_TerminalError(t *testing.T) {
	stubTerminal(t, true, nil, errors.New("boom"))

	var out bytes.Buffer
	_, err := GetSecret(rdr(""), "Password", &out)
	require.Error(t, err)
}

func TestGetSecret_Piped(t *testing.T) {
	stubTerminal(t, false, nil, errors.New("must not be called"))

	var out bytes.Buffer
	got, err := GetSecret(rdr("piped pass\nrest"), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "piped pass", got)
	assert.Empty(t, out.String())

	_, err = GetSecret(rdr(""), "Password", &out)
	require.Error(t, err)
}
