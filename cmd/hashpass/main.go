package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"SpiceKart/internal/admin"
)

// hashpass prints a bcrypt hash for ADMIN_PASS_HASH. The password comes from
// the first argument or, if absent, the first line of stdin.
func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
			os.Exit(2)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(2)
	}

	hash, err := admin.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
