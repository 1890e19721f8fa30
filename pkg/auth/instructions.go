package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide explains the ways to supply the site login
func ShowCredentialGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "CATALOG LOGIN SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The scraper logs in to the catalog site once per run. It looks for")
	fmt.Fprintln(w, "credentials in this order:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Environment")
	fmt.Fprintf(w, "   export %s=<username>\n", EnvUsername)
	fmt.Fprintf(w, "   export %s=<password>\n", EnvPassword)
	fmt.Fprintln(w, "   A .env file in the working directory is loaded as well.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "2. Stored account")
	fmt.Fprintln(w, "   catalogscraper auth login")
	fmt.Fprintln(w, "   The password is kept in the system keychain, or in an encrypted vault")
	fmt.Fprintln(w, "   when no keychain is available. Pick an account with --account.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Passwords are never read from the config file and never written to it.")
	fmt.Fprintf(w, "Set %s to choose the passphrase of the vault.\n", EnvPassphrase)
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

// ShowQuickGuide shows a condensed version for experienced users
func ShowQuickGuide(w io.Writer) {
	fmt.Fprintf(w, "No site login found: set %s and %s, or run 'catalogscraper auth login'\n", EnvUsername, EnvPassword)
}
