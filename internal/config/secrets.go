package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ResolveCredentialsPath returns secret if it can be opened, fallback
// otherwise.
func ResolveCredentialsPath(secret, fallback string) string {
	f, err := os.Open(secret)
	if err != nil {
		return fallback
	}
	f.Close()
	return secret
}

// ReadClientID returns the first line of primary, or of fallback when
// primary cannot be opened.
func ReadClientID(primary, fallback string) (string, error) {
	id, err := firstLine(primary)
	if err == nil {
		return id, nil
	}
	id, ferr := firstLine(fallback)
	if ferr != nil {
		return "", fmt.Errorf("client id: %s: %v; %s: %w", primary, err, fallback, ferr)
	}
	return id, nil
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	return line, nil
}

// StageCredentials copies the read-only secret at src to dst so the
// session can write refreshed tokens back.
func StageCredentials(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
