package bot

import (
	"fmt"
	"strings"

	"github.com/darui3018823/discordgo"

	"github.com/codeGROOVE-dev/scran/pkg/gallery"
)

// Subcommand names shared by every network's slash command.
const (
	subPick    = "pick"
	subSet     = "set"
	subForce   = "force"
	subStatus  = "status"
	subDebug   = "debug"
	subRefresh = "refresh"

	optProfile = "profile"
)

// adminSubcommands change state or hammer providers; they need Manage Server.
var adminSubcommands = map[string]bool{subSet: true, subForce: true, subDebug: true}

// commandName is the slash command for a network, e.g. "instagram".
func commandName(svc *gallery.Service) string {
	return strings.ToLower(string(svc.Platform().Name()))
}

// Command describes the slash command of one network.
func Command(svc *gallery.Service) *discordgo.ApplicationCommand {
	title := svc.Platform().Title()
	return &discordgo.ApplicationCommand{
		Name:        commandName(svc),
		Description: fmt.Sprintf("Random images from this server's %s profile", title),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subPick,
				Description: "Post a random cached image",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subSet,
				Description: fmt.Sprintf("Set the %s profile for this server", title),
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optProfile,
					Description: "Handle or profile URL",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subForce,
				Description: "Scrape the profile now",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subStatus,
				Description: "Show the profile, cache size and last scheduled scrape",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subDebug,
				Description: "Test every provider against the profile",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subRefresh,
				Description: "Refresh the image cache",
			},
		},
	}
}

// isAdmin reports whether the invoking member may run admin subcommands.
func isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

// subcommand returns the invoked subcommand and its string options.
func subcommand(data discordgo.ApplicationCommandInteractionData) (string, map[string]string) {
	if len(data.Options) == 0 {
		return "", nil
	}
	sub := data.Options[0]
	opts := make(map[string]string, len(sub.Options))
	for _, o := range sub.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			opts[o.Name] = o.StringValue()
		}
	}
	return sub.Name, opts
}
