package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPassword(t *testing.T) {
	orig := readPassword
	defer func() { readPassword = orig }()

	readPassword = func(fd int) ([]byte, error) {
		return []byte("s3cret"), nil
	}

	var out bytes.Buffer
	password, err := GetPassword(&out, "Enter password: ")
	require.NoError(t, err)

	assert.Equal(t, []byte("s3cret"), password)
	assert.Contains(t, out.String(), "Enter password: ")
}

func TestGetConfirmation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "yes\n", true},
		{"yes with spaces", "  yes  \n", true},
		{"no", "no\n", false},
		{"y is not enough", "y\n", false},
		{"empty", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			reader := bufio.NewReader(strings.NewReader(tt.input))

			ok, err := GetConfirmation(reader, "Are you sure?", &out)
			require.NoError(t, err)

			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Are you sure?")
		})
	}
}
