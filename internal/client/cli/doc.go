// Package cli implements authctl, the command-line client of the auth
// service.
//
// Every subcommand is one API call. The token pair obtained by login is
// kept in a local SQLite file, so later commands (me, refresh, logout,
// logout-all) run without prompting. An expired access token is refreshed
// transparently once.
//
// Commands:
//
//	authctl register [--name N] [--email E]
//	authctl login [--email E]
//	authctl me
//	authctl refresh
//	authctl logout
//	authctl logout-all
//
// Passwords are always read from the terminal without echo.
package cli
