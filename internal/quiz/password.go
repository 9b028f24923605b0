package quiz

import (
	"strings"
	"time"
)

// AdminCredentialID keys the single admin credential record.
const AdminCredentialID = "default"

type PasswordKind int

const (
	PasswordPlaintext PasswordKind = iota
	PasswordBcrypt
)

// Password is a stored admin password. Legacy records hold plaintext and are
// upgraded to bcrypt on the first successful login.
type Password struct {
	Kind  PasswordKind
	Value string
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// DecodePassword classifies a stored password string by its bcrypt prefix.
func DecodePassword(stored string) Password {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return Password{Kind: PasswordBcrypt, Value: stored}
		}
	}
	return Password{Kind: PasswordPlaintext, Value: stored}
}

func PlaintextPassword(s string) Password { return Password{Kind: PasswordPlaintext, Value: s} }

func HashedPassword(hash string) Password { return Password{Kind: PasswordBcrypt, Value: hash} }

func (p Password) IsHashed() bool { return p.Kind == PasswordBcrypt }

// Encode returns the string persisted by the stores.
func (p Password) Encode() string { return p.Value }

type AdminCredential struct {
	Email     string
	Password  Password
	UpdatedAt time.Time
}
