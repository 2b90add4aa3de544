package secret

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosend/internal/domain"
)

const phrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func writeSecret(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mnemonic")
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func fakePrompt(t *testing.T, terminal bool, input string, readErr error) (*Prompt, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	p := NewPrompt(os.Stdin, &out)
	p.isTerminal = func(int) bool { return terminal }
	p.readPassword = func(int) ([]byte, error) {
		if readErr != nil {
			return nil, readErr
		}
		return []byte(input), nil
	}
	return p, &out
}

func TestProvider_Order(t *testing.T) {
	prompt, _ := fakePrompt(t, true, "from prompt", nil)
	file := File{Path: writeSecret(t, "from file\n", 0o600), Logger: zerolog.Nop()}

	tests := []struct {
		name    string
		sources []Source
		want    string
	}{
		{name: "env wins", sources: []Source{Env{Value: "  from   env "}, file, prompt}, want: "from env"},
		{name: "file when env empty", sources: []Source{Env{}, file, prompt}, want: "from file"},
		{name: "prompt last", sources: []Source{Env{}, File{Logger: zerolog.Nop()}, prompt}, want: "from prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewProvider(zerolog.Nop(), tt.sources...).RecoveryPhrase(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_NoSecret(t *testing.T) {
	prompt, out := fakePrompt(t, false, "", nil)

	_, err := NewProvider(zerolog.Nop(), Env{}, File{Logger: zerolog.Nop()}, prompt).RecoveryPhrase(context.Background())
	if !errors.Is(err, domain.ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	assert.Empty(t, out.String(), "non-terminal stdin must not be prompted")
}

func TestProvider_FileErrorStops(t *testing.T) {
	prompt, _ := fakePrompt(t, true, phrase, nil)
	missing := File{Path: filepath.Join(t.TempDir(), "absent"), Logger: zerolog.Nop()}

	_, err := NewProvider(zerolog.Nop(), Env{}, missing, prompt).RecoveryPhrase(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "file:")
}

func TestFile(t *testing.T) {
	t.Run("trims and joins words", func(t *testing.T) {
		got, err := File{Path: writeSecret(t, "\n"+phrase+"\n\n", 0o600), Logger: zerolog.Nop()}.RecoveryPhrase(context.Background())
		require.NoError(t, err)
		assert.Equal(t, phrase, got)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := File{Path: writeSecret(t, " \n", 0o600), Logger: zerolog.Nop()}.RecoveryPhrase(context.Background())
		assert.ErrorIs(t, err, domain.ErrNoSecret)
	})

	t.Run("warns on loose permissions", func(t *testing.T) {
		var buf bytes.Buffer
		path := writeSecret(t, phrase, 0o600)
		require.NoError(t, os.Chmod(path, 0o644))

		got, err := File{Path: path, Logger: zerolog.New(&buf)}.RecoveryPhrase(context.Background())
		require.NoError(t, err)
		assert.Equal(t, phrase, got)
		assert.Contains(t, buf.String(), "readable by other users")
	})
}

func TestPrompt(t *testing.T) {
	p, out := fakePrompt(t, true, " "+phrase+" ", nil)

	got, err := p.RecoveryPhrase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, phrase, got)
	assert.Contains(t, out.String(), "Recovery phrase: ")

	p, _ = fakePrompt(t, true, "", errors.New("interrupted"))
	_, err = p.RecoveryPhrase(context.Background())
	assert.ErrorContains(t, err, "interrupted")
}
