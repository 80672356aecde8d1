package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darui3018823/discordgo"

	"github.com/codeGROOVE-dev/scran/pkg/chain"
	"github.com/codeGROOVE-dev/scran/pkg/gallery"
	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

const sampleWidth = 50

// errorText turns an operation error into a user-facing reply.
func errorText(p profile.Platform, err error) string {
	title := p.Title()
	switch {
	case errors.Is(err, profile.ErrNotConfigured):
		return fmt.Sprintf("No %s profile set. Use `/%s set` first.", title, strings.ToLower(string(p.Name())))
	case errors.Is(err, gallery.ErrInvalidHandle):
		return fmt.Sprintf("That does not look like a %s profile.", title)
	case errors.Is(err, profile.ErrNoImages):
		return "No images found. The account might be private, have no posts, or all methods are currently blocked."
	case errors.Is(err, profile.ErrAuthRequired):
		return fmt.Sprintf("%s requires a login to see this account.", title)
	default:
		return "Error fetching images."
	}
}

func pickReply(p profile.Platform, picked gallery.Picked) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Color: p.Color(),
		Image: &discordgo.MessageEmbedImage{URL: picked.URL},
	}
	if picked.Profile != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "From @" + picked.Profile}
	}
	params := &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
	if picked.Fetched > 0 {
		params.Content = fmt.Sprintf("Cache was empty, fetched %d images.", picked.Fetched)
	}
	return params
}

func setReply(p profile.Platform, res gallery.ScrapeResult, err error) *discordgo.WebhookParams {
	if res.Profile == "" {
		return &discordgo.WebhookParams{Content: errorText(p, err)}
	}
	head := fmt.Sprintf("%s profile set to `%s`.", p.Title(), res.Profile)
	if err != nil {
		return &discordgo.WebhookParams{Content: head + " " + errorText(p, err)}
	}
	return &discordgo.WebhookParams{
		Content: fmt.Sprintf("%s Cached %d images.", head, res.Count),
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Sample Image",
			Color: p.Color(),
			Image: &discordgo.MessageEmbedImage{URL: res.Sample},
		}},
	}
}

func forceReply(p profile.Platform, res gallery.ScrapeResult, err error) *discordgo.WebhookParams {
	if err != nil {
		return &discordgo.WebhookParams{Content: errorText(p, err)}
	}
	return &discordgo.WebhookParams{Content: fmt.Sprintf("Cached %d images from `%s`.", res.Count, res.Profile)}
}

func refreshReply(p profile.Platform, res gallery.ScrapeResult, err error) *discordgo.WebhookParams {
	if err != nil {
		return &discordgo.WebhookParams{Content: "Failed to refresh cache. " + errorText(p, err)}
	}
	return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{{
		Title:       "Cache Refreshed",
		Description: fmt.Sprintf("Updated from %d to %d images", res.Previous, res.Count),
		Color:       p.Color(),
	}}}
}

func statusReply(p profile.Platform, st gallery.Status) *discordgo.WebhookParams {
	last := "Never"
	if !st.LastRun.IsZero() {
		last = fmt.Sprintf("<t:%d:R>", st.LastRun.Unix())
	}
	embed := &discordgo.MessageEmbed{
		Title: p.Title() + " Status",
		Color: p.Color(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Profile", Value: "@" + st.Profile, Inline: true},
			{Name: "Cached Images", Value: fmt.Sprint(st.Cached), Inline: true},
			{Name: "Last Scrape", Value: last, Inline: true},
		},
	}
	if st.Sample != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Sample Image", Value: "[View](" + st.Sample + ")", Inline: true})
	}
	return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
}

func debugReply(p profile.Platform, name string, attempts []chain.Attempt) *discordgo.WebhookParams {
	lines := make([]string, 0, len(attempts))
	for _, a := range attempts {
		switch {
		case a.OK():
			line := fmt.Sprintf("OK %s: found %d images (%s)", a.Fetcher, a.Count, a.Duration.Round(time.Millisecond))
			if a.Sample != "" {
				line += "\nSample: " + truncate(a.Sample, sampleWidth)
			}
			lines = append(lines, line)
		case a.Err == nil || errors.Is(a.Err, profile.ErrNoImages):
			lines = append(lines, fmt.Sprintf("FAIL %s: no images found", a.Fetcher))
		default:
			lines = append(lines, fmt.Sprintf("FAIL %s: error - %v", a.Fetcher, a.Err))
		}
	}
	return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{{
		Title:       fmt.Sprintf("%s Debug Results for @%s", p.Title(), name),
		Description: strings.Join(lines, "\n"),
		Color:       p.Color(),
	}}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
