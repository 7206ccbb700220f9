package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal запрашивает недостающие учетные данные Campfire интерактивно.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
}

// NewTerminal создает новый экземпляр Terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinfd: int(os.Stdin.Fd()),
	}
}

// Subdomain запрашивает поддомен аккаунта.
func (t *Terminal) Subdomain(_ context.Context) (string, error) {
	fmt.Fprint(t.out, "Campfire subdomain: ")
	subdomain, err := t.in.ReadString('\n')
	if err != nil {
		return "", xerrors.Errorf("failed to read subdomain: %w", err)
	}
	return strings.TrimSpace(subdomain), nil
}

// APIToken запрашивает API-токен без эха в терминал.
func (t *Terminal) APIToken(_ context.Context) (string, error) {
	fmt.Fprint(t.out, "Campfire API token: ")
	byteToken, err := term.ReadPassword(t.stdinfd)
	if err != nil {
		return "", xerrors.Errorf("failed to read token: %w", err)
	}
	fmt.Fprintln(t.out) // Новая строка после ввода
	return strings.TrimSpace(string(byteToken)), nil
}
