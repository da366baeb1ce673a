// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			commonPasswords[password] = struct{}{}
		}
	}
}

// validatePassword rejects credentials that are too short, on the common
// password list, or trivially derived from the account's own email.
func validatePassword(password, email string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	lowered := strings.ToLower(password)
	if _, ok := commonPasswords[lowered]; ok {
		return ErrWeakPassword
	}

	if email != "" {
		local := strings.ToLower(strings.SplitN(email, "@", 2)[0])
		if len(local) >= 4 && strings.Contains(lowered, local) {
			return ErrWeakPassword
		}
	}

	return nil
}
