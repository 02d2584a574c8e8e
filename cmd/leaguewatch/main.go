// Command leaguewatch announces rec-league signups that are still open.
//
// Usage:
//
//	leaguewatch check [--dump] [--config file] [--env-file file]
//	leaguewatch watch [--config file] [--env-file file]
//
// Every config key can be overridden with a LEAGUEWATCH_ environment
// variable, e.g. LEAGUEWATCH_TELEGRAM_TOKEN.
package main

import "github.com/JakeFAU/league-watcher/cmd"

func main() {
	cmd.Execute()
}
