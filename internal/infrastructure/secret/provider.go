// Package secret resolves the sender's recovery phrase at startup.
package secret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/iho/gosend/internal/domain"
)

// Source yields a recovery phrase, or domain.ErrNoSecret when it has none.
type Source interface {
	Name() string
	RecoveryPhrase(ctx context.Context) (string, error)
}

// Provider tries its sources in order and returns the first phrase found.
type Provider struct {
	sources []Source
	logger  zerolog.Logger
}

// NewProvider creates a Provider over sources.
func NewProvider(logger zerolog.Logger, sources ...Source) *Provider {
	return &Provider{sources: sources, logger: logger}
}

// RecoveryPhrase returns the first available phrase. Sources that hold no
// phrase are skipped; any other failure stops the search.
func (p *Provider) RecoveryPhrase(ctx context.Context) (string, error) {
	for _, src := range p.sources {
		phrase, err := src.RecoveryPhrase(ctx)
		if errors.Is(err, domain.ErrNoSecret) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", src.Name(), err)
		}

		p.logger.Debug().Str("source", src.Name()).Msg("recovery phrase resolved")
		return phrase, nil
	}

	return "", domain.ErrNoSecret
}

// Env is a phrase already read from the environment.
type Env struct {
	Value string
}

func (e Env) Name() string { return "env" }

func (e Env) RecoveryPhrase(context.Context) (string, error) {
	return normalize(e.Value)
}

// File reads the phrase from a file, typically a mounted secret.
type File struct {
	Path   string
	Logger zerolog.Logger
}

func (f File) Name() string { return "file" }

func (f File) RecoveryPhrase(context.Context) (string, error) {
	if f.Path == "" {
		return "", domain.ErrNoSecret
	}

	info, err := os.Stat(f.Path)
	if err != nil {
		return "", err
	}
	if info.Mode().Perm()&0o077 != 0 {
		f.Logger.Warn().
			Str("path", f.Path).
			Str("mode", info.Mode().Perm().String()).
			Msg("recovery phrase file is readable by other users")
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}

	phrase, err := normalize(string(raw))
	if err != nil {
		return "", fmt.Errorf("%s is empty: %w", f.Path, err)
	}
	return phrase, nil
}

// Prompt asks for the phrase on an interactive terminal without echo.
type Prompt struct {
	In  *os.File
	Out io.Writer

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

// NewPrompt creates a Prompt reading from in and writing the prompt to out.
func NewPrompt(in *os.File, out io.Writer) *Prompt {
	return &Prompt{
		In:           in,
		Out:          out,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

func (p *Prompt) Name() string { return "prompt" }

func (p *Prompt) RecoveryPhrase(context.Context) (string, error) {
	if p.In == nil {
		return "", domain.ErrNoSecret
	}

	fd := int(p.In.Fd())
	if !p.isTerminal(fd) {
		return "", domain.ErrNoSecret
	}

	fmt.Fprint(p.Out, "Recovery phrase: ")
	raw, err := p.readPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("read recovery phrase: %w", err)
	}

	return normalize(string(raw))
}

func normalize(phrase string) (string, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")
	if phrase == "" {
		return "", domain.ErrNoSecret
	}
	return phrase, nil
}
