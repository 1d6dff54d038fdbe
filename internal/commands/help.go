package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for listeningroom",
	Long:  `Display detailed help for all listeningroom commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if sub, _, err := rootCmd.Find(args); err == nil && sub != rootCmd {
				sub.Help()
				return
			}
		}
		showCustomHelp()
	},
}

func showCustomHelp() {
	fmt.Print(`
  ♪ ♫  L I S T E N I N G R O O M  ♫ ♪

listeningroom - session rewards for peer support

RATES:

  standard   40 points/min   first 5 minutes
  premium    60 points/min   after both agree to continue
  100 points = $10.00

COMMANDS:

  serve                   Run the reward server
    --addr                Listen address (default :8080)

  watch <session-id>      Live reward timer for a session
    --plain               Line output; answer the prompt on stdin

    Keys:
      c             Continue at premium (when asked)
      e             End the session
      q/esc         Leave the view (session keeps running)

  ls                      Browse your sessions, enter to watch one
    -s, --status          active|ended|all (default active)
    --plain               Simple text output

  stats                   Your earnings as a volunteer

  session start           Create a session for a volunteer and a seeker
    --volunteer           Volunteer user ID
    --seeker              Seeker user ID
    --no-ui               Skip the interactive form
  session end <id>        End a session and print the final rewards
  session history <id>    Decisions recorded for a session

  token <user-id>         Mint a development bearer token
    --role                volunteer|seeker
    --ttl                 Token lifetime (default 24h)

  version                 Print version information
  help                    Show this help

GLOBAL FLAGS:

  --server                Reward server URL
  --token                 Bearer token
  --log-level             debug|info|warn|error

Settings come from LISTENINGROOM_* environment variables or a .env file.

`)
}
