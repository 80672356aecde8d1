// Package bot exposes the gallery services as Discord slash commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/darui3018823/discordgo"

	"github.com/codeGROOVE-dev/scran/pkg/gallery"
)

// commandTimeout bounds one command, including a fetch-on-miss or a full debug probe.
const commandTimeout = 2 * time.Minute

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot owns the Discord session and routes each network's slash command to its gallery service.
type Bot struct {
	session   *discordgo.Session
	services  map[string]*gallery.Service
	ready     chan struct{}
	logger    *slog.Logger
	guildID   string
	readyOnce sync.Once
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithGuild registers commands in one guild instead of globally.
func WithGuild(id string) Option {
	return func(b *Bot) { b.guildID = id }
}

// New creates a Bot. The session is not opened until Open.
func New(token string, services []*gallery.Service, opts ...Option) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:  session,
		services: make(map[string]*gallery.Service, len(services)),
		ready:    make(chan struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, svc := range services {
		b.services[commandName(svc)] = svc
	}

	session.AddHandler(b.onReady)
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		b.handle(ctx, s, i)
	})
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

// Ready is closed once the gateway Ready event arrived and commands are registered.
func (b *Bot) Ready() <-chan struct{} { return b.ready }

// Guilds lists the guilds the bot is in.
func (b *Bot) Guilds(context.Context) ([]string, error) {
	state := b.session.State
	if state == nil {
		return nil, errors.New("session state unavailable")
	}
	state.RLock()
	defer state.RUnlock()

	ids := make([]string, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected to discord", "user", r.User.Username, "guilds", len(r.Guilds))
	for _, svc := range b.services {
		cmd := Command(svc)
		if _, err := s.ApplicationCommandCreate(r.User.ID, b.guildID, cmd); err != nil {
			b.logger.Error("registering command failed", "command", cmd.Name, "error", err)
		}
	}
	b.readyOnce.Do(func() { close(b.ready) })
}

// handle answers one interaction. Slow subcommands are deferred and completed with a followup.
func (b *Bot) handle(ctx context.Context, r Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	svc, ok := b.services[data.Name]
	if !ok {
		return
	}
	sub, opts := subcommand(data)
	logger := b.logger.With("command", data.Name, "subcommand", sub, "guild", i.GuildID)

	if i.GuildID == "" {
		b.respond(r, i, "This command only works in a server.", logger)
		return
	}
	if adminSubcommands[sub] && !isAdmin(i) {
		b.respond(r, i, "You need the Manage Server permission for that.", logger)
		return
	}

	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		logger.Warn("deferring response failed", "error", err)
		return
	}

	reply := b.run(ctx, svc, sub, opts, i.GuildID, logger)
	if _, err := r.FollowupMessageCreate(i.Interaction, true, reply); err != nil {
		logger.Warn("sending followup failed", "error", err)
	}
}

func (b *Bot) run(ctx context.Context, svc *gallery.Service, sub string, opts map[string]string, guild string, logger *slog.Logger) *discordgo.WebhookParams {
	p := svc.Platform()
	switch sub {
	case subPick:
		picked, err := svc.Pick(ctx, guild)
		if err != nil {
			logger.Warn("pick failed", "error", err)
			return &discordgo.WebhookParams{Content: errorText(p, err)}
		}
		return pickReply(p, picked)
	case subSet:
		res, err := svc.SetProfile(ctx, guild, opts[optProfile])
		if err != nil {
			logger.Warn("set profile incomplete", "input", opts[optProfile], "error", err)
		}
		return setReply(p, res, err)
	case subForce:
		res, err := svc.Scrape(ctx, guild)
		return forceReply(p, res, err)
	case subRefresh:
		res, err := svc.Scrape(ctx, guild)
		return refreshReply(p, res, err)
	case subStatus:
		st, err := svc.Status(ctx, guild)
		if err != nil {
			return &discordgo.WebhookParams{Content: errorText(p, err)}
		}
		return statusReply(p, st)
	case subDebug:
		name, attempts, err := svc.Debug(ctx, guild)
		if err != nil && len(attempts) == 0 {
			return &discordgo.WebhookParams{Content: errorText(p, err)}
		}
		return debugReply(p, name, attempts)
	default:
		return &discordgo.WebhookParams{Content: "Unknown subcommand."}
	}
}

func (*Bot) respond(r Responder, i *discordgo.InteractionCreate, msg string, logger *slog.Logger) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Warn("responding failed", "error", err)
	}
}
