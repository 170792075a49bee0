package main

import (
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Prints a new operator key and the hash to put in API_KEY_HASH.
// Usage: genkey [live|test]
func main() {
	env := domain.EnvLive
	if len(os.Args) > 1 && os.Args[1] == "test" {
		env = domain.EnvTest
	}

	key, hash, err := domain.GenerateOperatorKey(env)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("KEY=%s\nAPI_KEY_HASH=%s\n", key, hash)
}
