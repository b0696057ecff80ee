package types

type contextKey string

// ClientAppKey carries the wired *client.App through the cobra command
// context so subcommand packages can reach it.
const ClientAppKey contextKey = "clientApp"
