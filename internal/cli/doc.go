// Package cli is the interactive front end of the bounty tracker.
//
// NewApp wires configuration, the SQLite storage, the progress store and
// the session services. Run restores the previous session if the identity
// marker is still present and then reads commands until the user exits.
//
// Commands:
//
//	login               authenticate and start the 24h redemption window
//	logout              end the session (progress is kept)
//	status              show points, level and time left
//	submit <key>        redeem a reward key
//	name <display name> change the display name
//	avatar <file>       set the avatar from an image file ("avatar -" clears)
//	history             list journaled redemptions
//	help                show the command list
//	exit | quit         leave (the session survives a restart)
package cli
