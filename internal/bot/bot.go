package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/micatbot/internal/activity"
	"github.com/xaenox/micatbot/internal/chat"
	"github.com/xaenox/micatbot/internal/classifier"
	"github.com/xaenox/micatbot/internal/heuristics"
	"github.com/xaenox/micatbot/internal/models"
	"github.com/xaenox/micatbot/internal/moderation"
	"github.com/xaenox/micatbot/internal/random"
	"github.com/xaenox/micatbot/internal/search"
	"github.com/xaenox/micatbot/internal/storage"
	"github.com/xaenox/micatbot/internal/tags"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Speaker synthesizes audio for catbot replies
type Speaker interface {
	Enabled() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Services struct {
	Storage    storage.Storage
	Classifier classifier.Classifier
	Responder  chat.Responder
	Speech     Speaker
	History    *chat.History
	PageSize   int
}

// session is the per-chat state: its own search store and the catbot
// currently being chatted with.
type session struct {
	store     *search.Store
	loadOnce  sync.Once
	catbotID  string
	lastReply string
}

type Bot struct {
	api    sender
	botAPI *tgbotapi.BotAPI
	svc    Services
	logger *zap.Logger

	now       func() time.Time
	newSource func() random.Source

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(token string, svc Services, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, svc, logger)
	b.botAPI = api
	return b, nil
}

func newBot(api sender, svc Services, logger *zap.Logger) *Bot {
	if svc.History == nil {
		svc.History = chat.NewHistory(20)
	}
	if svc.PageSize <= 0 {
		svc.PageSize = 10
	}
	return &Bot{
		api:       api,
		svc:       svc,
		logger:    logger,
		now:       time.Now,
		newSource: random.New,
		sessions:  make(map[int64]*session),
	}
}

// Start polls for updates until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return errors.New("bot has no telegram connection")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.botAPI.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.botAPI.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			b.closeSessions()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.closeSessions()
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}
	b.handleChatText(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "help":
		b.handleHelp(message)
	case "browse":
		b.handleBrowse(ctx, message)
	case "search":
		b.handleSearch(ctx, message, args)
	case "tags":
		b.handleTags(ctx, message)
	case "tag":
		b.handleTag(ctx, message, args)
	case "clear":
		b.handleClear(ctx, message)
	case "reload":
		b.handleReload(ctx, message)
	case "trending":
		b.handleTrending(ctx, message)
	case "activity":
		b.handleActivity(ctx, message)
	case "new":
		b.handleNew(ctx, message, args)
	case "chat":
		b.handleChat(ctx, message, args)
	case "like":
		b.handleLike(ctx, message, args)
	case "speak":
		b.handleSpeak(ctx, message)
	case "stop":
		b.handleStop(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

// session returns the chat's session, creating and loading its store on
// first use. Concurrent first callers wait for the same initial load.
// Load failures are logged by the store and reported by the store state.
func (b *Bot) session(ctx context.Context, chatID int64) *session {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{store: search.New(b.svc.Storage, b.logger.With(zap.Int64("chat_id", chatID)))}
		b.sessions[chatID] = s
	}
	b.mu.Unlock()

	s.loadOnce.Do(func() {
		_ = s.store.Load(ctx)
	})
	return s
}

func (b *Bot) closeSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for chatID, s := range b.sessions {
		s.store.Close()
		delete(b.sessions, chatID)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	s := b.session(ctx, message.Chat.ID)

	welcome := fmt.Sprintf(`Welcome to MiCatbot! 🐱
Meet AI cat characters made by the community, or create your own.

There are %d public catbots right now.
Use /browse to see them, /search or /tag to narrow down, and /help for everything else.`, s.store.State().RosterSize)

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/browse - Show public catbots
/search <text> - Search by name or profile
/tags - Show tags you can filter by
/tag <tag, tag> - Filter by any of the tags
/clear - Clear search and tag filters
/reload - Refresh the catbot list
/trending - Show trending catbots
/activity - See what's happening
/new <name> | <description> - Create a catbot
/chat <id> - Start chatting with a catbot
/like <id> - Like a catbot
/speak - Hear the last reply
/stop - End the chat and reset your filters

While chatting, just send a message and the catbot replies!`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleBrowse(ctx context.Context, message *tgbotapi.Message) {
	b.sendCatalog(message.Chat.ID, b.session(ctx, message.Chat.ID).store)
}

func (b *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		b.sendMessage(message.Chat.ID, "Usage: /search <text>")
		return
	}
	store := b.session(ctx, message.Chat.ID).store
	store.SetQuery(args)
	b.sendCatalog(message.Chat.ID, store)
}

func (b *Bot) handleTags(ctx context.Context, message *tgbotapi.Message) {
	store := b.session(ctx, message.Chat.ID).store
	available := store.AvailableTags()
	if len(available) == 0 {
		available = tags.ListTags()
	}

	response := "*Tags:*\n" + formatTags(available) + "\n"
	if selected := store.State().SelectedTags; len(selected) > 0 {
		response += "\n*Selected:* " + formatTags(selected) + "\n"
	}
	b.sendMarkdown(message.Chat.ID, response)
}

func (b *Bot) handleTag(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		b.sendMessage(message.Chat.ID, "Usage: /tag <tag, tag>. See /tags for the list.")
		return
	}

	var selected, unknown []string
	for _, raw := range strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' }) {
		if tag, ok := tags.Canonicalize(raw); ok {
			selected = append(selected, tag)
		} else {
			unknown = append(unknown, raw)
		}
	}
	if len(unknown) > 0 {
		b.sendMessage(message.Chat.ID, "Unknown tags: "+strings.Join(unknown, ", ")+". See /tags for the list.")
		return
	}

	store := b.session(ctx, message.Chat.ID).store
	store.SetSelectedTags(selected)
	b.sendCatalog(message.Chat.ID, store)
}

func (b *Bot) handleClear(ctx context.Context, message *tgbotapi.Message) {
	b.session(ctx, message.Chat.ID).store.Clear()
	b.sendMessage(message.Chat.ID, "Filters cleared.")
}

func (b *Bot) handleReload(ctx context.Context, message *tgbotapi.Message) {
	store := b.session(ctx, message.Chat.ID).store
	if err := store.Load(ctx); err != nil {
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't refresh the catbot list. Please try again.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Loaded %d catbots.", store.State().RosterSize))
}

func (b *Bot) handleTrending(ctx context.Context, message *tgbotapi.Message) {
	roster := b.session(ctx, message.Chat.ID).store.Roster()
	counts := interactionCounts(roster)
	now := b.now()
	src := b.newSource()

	var response strings.Builder
	response.WriteString("*Trending catbots*\n")
	found := 0
	for i := range roster {
		if !heuristics.IsTrending(roster[i].InteractionCount, counts) {
			continue
		}
		response.WriteString("\n" + card(&roster[i], now, counts, src))
		found++
	}
	if found == 0 {
		b.sendMessage(message.Chat.ID, "Nothing is trending yet. Start a chat with /browse!")
		return
	}
	b.sendMarkdown(message.Chat.ID, response.String())
}

func (b *Bot) handleActivity(ctx context.Context, message *tgbotapi.Message) {
	roster := b.session(ctx, message.Chat.ID).store.Roster()
	characters := make([]models.Character, len(roster))
	for i := range roster {
		characters[i] = roster[i].Character()
	}
	b.sendMarkdown(message.Chat.ID, activityFeed(activity.Synthesize(b.newSource(), characters)))
}

func (b *Bot) handleNew(ctx context.Context, message *tgbotapi.Message, args string) {
	name, description, _ := strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		b.sendMessage(message.Chat.ID, "Usage: /new <name> | <description>")
		return
	}
	if res := moderation.Check(name + " " + description); res.Flagged {
		b.logger.Info("Rejected catbot by moderation",
			zap.Int64("user_id", message.From.ID),
			zap.Strings("terms", res.Terms))
		b.sendErrorMessage(message.Chat.ID, "That catbot breaks the community guidelines. Please try something else.")
		return
	}

	catbot := &models.Catbot{
		OwnerID:     message.From.ID,
		Name:        name,
		Description: description,
		IsPublic:    true,
		Tags:        b.svc.Classifier.SuggestTags(ctx, name, description),
	}
	if err := b.svc.Storage.CreateCatbot(ctx, catbot); err != nil {
		b.logger.Error("Failed to save catbot",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your catbot. Please try again.")
		return
	}

	_ = b.session(ctx, message.Chat.ID).store.Load(ctx)

	text := fmt.Sprintf("*%s* is ready\\! 🐾\n", escapeMarkdown(catbot.Name))
	if len(catbot.Tags) > 0 {
		text += "*Tags:* " + formatTags(catbot.Tags) + "\n"
	}
	text += escapeMarkdown("Say hi with /chat "+catbot.ID) + "\n"
	b.sendMarkdown(message.Chat.ID, text)
}

func (b *Bot) handleChat(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		b.sendMessage(message.Chat.ID, "Usage: /chat <id>. Find ids with /browse.")
		return
	}
	catbot, ok := b.lookupCatbot(ctx, message, args)
	if !ok {
		return
	}

	s := b.session(ctx, message.Chat.ID)
	b.mu.Lock()
	s.catbotID = catbot.ID
	s.lastReply = ""
	b.mu.Unlock()
	b.svc.History.Reset(historyKey(message.Chat.ID, catbot.ID))

	b.sendMessage(message.Chat.ID, fmt.Sprintf("You're now chatting with %s. Say something! (/stop to end)", catbot.Name))
}

func (b *Bot) handleLike(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		b.sendMessage(message.Chat.ID, "Usage: /like <id>")
		return
	}
	catbot, ok := b.lookupCatbot(ctx, message, args)
	if !ok {
		return
	}
	if err := b.svc.Storage.IncrementLikes(ctx, catbot.ID); err != nil {
		b.logger.Error("Failed to like catbot", zap.Error(err), zap.String("catbot_id", catbot.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your like.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("You liked %s ❤", catbot.Name))
}

func (b *Bot) handleSpeak(ctx context.Context, message *tgbotapi.Message) {
	if b.svc.Speech == nil || !b.svc.Speech.Enabled() {
		b.sendMessage(message.Chat.ID, "Voice replies are not available right now.")
		return
	}

	b.mu.Lock()
	var lastReply string
	if s, ok := b.sessions[message.Chat.ID]; ok {
		lastReply = s.lastReply
	}
	b.mu.Unlock()
	if lastReply == "" {
		b.sendMessage(message.Chat.ID, "There's nothing to say yet. Chat with a catbot first!")
		return
	}

	audio, err := b.svc.Speech.Synthesize(ctx, lastReply)
	if err != nil {
		b.logger.Error("Failed to synthesize speech", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't make a voice reply.")
		return
	}

	voice := tgbotapi.NewAudio(message.Chat.ID, tgbotapi.FileBytes{Name: "reply.mp3", Bytes: audio})
	if _, err := b.api.Send(voice); err != nil {
		b.logger.Error("Failed to send audio", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleStop(message *tgbotapi.Message) {
	b.mu.Lock()
	s, ok := b.sessions[message.Chat.ID]
	var catbotID string
	if ok {
		catbotID = s.catbotID
	}
	delete(b.sessions, message.Chat.ID)
	b.mu.Unlock()

	if ok {
		s.store.Close()
		if catbotID != "" {
			b.svc.History.Reset(historyKey(message.Chat.ID, catbotID))
		}
	}
	b.sendMessage(message.Chat.ID, "Chat ended and filters reset. See you soon! 🐾")
}

func (b *Bot) handleChatText(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	b.mu.Lock()
	var catbotID string
	s, ok := b.sessions[message.Chat.ID]
	if ok {
		catbotID = s.catbotID
	}
	b.mu.Unlock()
	if catbotID == "" {
		b.sendMessage(message.Chat.ID, "Pick a catbot first: /browse, then /chat <id>.")
		return
	}

	if !moderation.Clean(text) {
		b.sendErrorMessage(message.Chat.ID, "Let's keep it friendly. Please rephrase that.")
		return
	}

	catbot, err := b.svc.Storage.GetCatbot(ctx, catbotID)
	if err != nil {
		b.logger.Error("Failed to get catbot", zap.Error(err), zap.String("catbot_id", catbotID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, that catbot is not available anymore.")
		return
	}

	key := historyKey(message.Chat.ID, catbotID)
	reply, err := b.svc.Responder.Reply(ctx, catbot, b.svc.History.Get(key), text)
	if err != nil {
		b.logger.Error("Failed to get catbot reply",
			zap.Error(err),
			zap.String("catbot_id", catbotID),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, catbot.Name+" is napping. Please try again in a moment.")
		return
	}

	b.svc.History.Append(key,
		models.ChatTurn{Role: models.RoleUser, Content: text},
		models.ChatTurn{Role: models.RoleAssistant, Content: reply})
	if err := b.svc.Storage.IncrementInteractions(ctx, catbotID); err != nil {
		b.logger.Error("Failed to record interaction", zap.Error(err), zap.String("catbot_id", catbotID))
	}

	b.mu.Lock()
	s.lastReply = reply
	b.mu.Unlock()

	b.sendMessage(message.Chat.ID, reply)
}

// lookupCatbot resolves id to a catbot the user may see: public ones and
// their own.
func (b *Bot) lookupCatbot(ctx context.Context, message *tgbotapi.Message, id string) (*models.Catbot, bool) {
	catbot, err := b.svc.Storage.GetCatbot(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !catbot.IsPublic && catbot.OwnerID != message.From.ID) {
		b.sendMessage(message.Chat.ID, "I can't find that catbot. Check the id with /browse.")
		return nil, false
	}
	if err != nil {
		b.logger.Error("Failed to get catbot", zap.Error(err), zap.String("catbot_id", id))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return nil, false
	}
	return catbot, true
}

func (b *Bot) sendCatalog(chatID int64, store *search.Store) {
	visible := store.Visible()
	counts := interactionCounts(store.Roster())
	b.sendMarkdown(chatID, catalog(store.State(), visible, b.svc.PageSize, b.now(), counts, b.newSource()))
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func historyKey(chatID int64, catbotID string) string {
	return fmt.Sprintf("%d:%s", chatID, catbotID)
}
