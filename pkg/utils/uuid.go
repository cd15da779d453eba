package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GeneratePrefixedID gera "prefixo-xxxxxxxxxx"; se o nanoid falhar usa um uuid
func GeneratePrefixedID(prefix string) string {
	id, err := gonanoid.Generate(characters, 10)
	if err != nil {
		id = uuid.NewString()
	}

	return prefix + "-" + id
}
