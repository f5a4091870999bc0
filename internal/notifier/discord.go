package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// DiscordNotifier receives slash commands and posts replies through a Discord bot session.
type DiscordNotifier struct {
	Session        *discordgo.Session
	GuildIDs       []string
	CommandTimeout time.Duration
}

// NewDiscordNotifier creates a bot session. Commands are accepted only from
// guildIDs; an empty list accepts every guild and registers commands globally.
func NewDiscordNotifier(token string, guildIDs []string, commandTimeout time.Duration) (*DiscordNotifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return &DiscordNotifier{Session: s, GuildIDs: guildIDs, CommandTimeout: commandTimeout}, nil
}

// Start opens the gateway connection, registers the slash commands and routes
// interactions to handler. Each interaction runs in its own goroutine with a
// context derived from ctx and bounded by CommandTimeout.
func (d *DiscordNotifier) Start(ctx context.Context, handler CommandHandler) error {
	d.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.String()).Msg("discord session ready")
	})
	d.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		d.onInteraction(ctx, i, handler)
	})

	if err := d.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	appID := d.Session.State.User.ID
	guilds := d.GuildIDs
	if len(guilds) == 0 {
		guilds = []string{""}
	}
	for _, g := range guilds {
		for _, cmd := range SlashCommands() {
			if _, err := d.Session.ApplicationCommandCreate(appID, g, cmd); err != nil {
				return fmt.Errorf("register command %s in guild %q: %w", cmd.Name, g, err)
			}
		}
	}
	log.Info().Int("guilds", len(d.GuildIDs)).Msg("slash commands registered")
	return nil
}

// Allowed reports whether commands from guildID are accepted.
func (d *DiscordNotifier) Allowed(guildID string) bool {
	if len(d.GuildIDs) == 0 {
		return true
	}
	for _, g := range d.GuildIDs {
		if g == guildID {
			return true
		}
	}
	return false
}

func (d *DiscordNotifier) onInteraction(ctx context.Context, i *discordgo.InteractionCreate, handler CommandHandler) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if !d.Allowed(i.GuildID) {
		log.Warn().Str("guild", i.GuildID).Msg("interaction from unlisted guild rejected")
		_ = d.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "This server is not allowed to use this bot.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	cmd := commandFromInteraction(i)
	// Acknowledge within Discord's three second window; replies follow up.
	if err := d.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error().Err(err).Str("command", cmd.Name).Msg("defer interaction")
		return
	}

	go func() {
		cctx, cancel := context.WithTimeout(ctx, d.CommandTimeout)
		defer cancel()
		handler(cctx, cmd, &interactionResponder{session: d.Session, interaction: i.Interaction})
	}()
}

func commandFromInteraction(i *discordgo.InteractionCreate) Command {
	data := i.ApplicationCommandData()
	cmd := Command{
		Name:      data.Name,
		Options:   make(map[string]string, len(data.Options)),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		cmd.UserID = i.Member.User.ID
	case i.User != nil:
		cmd.UserID = i.User.ID
	}
	for _, o := range data.Options {
		cmd.Options[o.Name] = optionString(o)
	}
	return cmd
}

func optionString(o *discordgo.ApplicationCommandInteractionDataOption) string {
	switch o.Type {
	case discordgo.ApplicationCommandOptionString:
		return o.StringValue()
	case discordgo.ApplicationCommandOptionBoolean:
		return strconv.FormatBool(o.BoolValue())
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(o.IntValue(), 10)
	case discordgo.ApplicationCommandOptionNumber:
		return strconv.FormatFloat(o.FloatValue(), 'f', -1, 64)
	default:
		return fmt.Sprint(o.Value)
	}
}

// interactionResponder sends follow-up messages for a deferred interaction.
type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r *interactionResponder) Send(ctx context.Context, msg Message) error {
	files, closeAll, err := openFiles(msg.Files)
	if err != nil {
		return err
	}
	defer closeAll()

	_, err = r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: msg.Content,
		Files:   files,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send followup: %w", err)
	}
	return nil
}

// Post sends a message to a channel outside of any interaction.
func (d *DiscordNotifier) Post(ctx context.Context, channelID string, msg Message) error {
	files, closeAll, err := openFiles(msg.Files)
	if err != nil {
		return err
	}
	defer closeAll()

	_, err = d.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files:   files,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send channel message: %w", err)
	}
	return nil
}

// PostWithRetry posts with exponential backoff retry.
func (d *DiscordNotifier) PostWithRetry(ctx context.Context, channelID string, msg Message, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := d.Post(ctx, channelID, msg); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("discord post failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Close closes the gateway connection.
func (d *DiscordNotifier) Close() error {
	return d.Session.Close()
}

func openFiles(atts []Attachment) ([]*discordgo.File, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	files := make([]*discordgo.File, 0, len(atts))
	for _, a := range atts {
		f, err := os.Open(a.Path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open attachment: %w", err)
		}
		closers = append(closers, f)
		files = append(files, &discordgo.File{Name: a.Name, ContentType: a.ContentType, Reader: f})
	}
	return files, closeAll, nil
}
