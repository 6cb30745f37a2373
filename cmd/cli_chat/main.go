package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agrimarket/internal/config"
	"agrimarket/internal/db"
	"agrimarket/internal/domain"
	"agrimarket/internal/llm"
	"agrimarket/internal/realtime"
	"agrimarket/internal/repository"
	"agrimarket/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	llmClient := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	hub := realtime.NewMemoryHub()
	chatSvc := service.NewChatService(logger, conversationRepo, messageRepo, llmClient, hub)

	user, err := ensureUser(ctx, userRepo, "cli_test@example.com")
	if err != nil {
		log.Fatal(err)
	}
	profile, err := ensureProfile(ctx, profileRepo, user)
	if err != nil {
		log.Fatal(err)
	}

	for {
		fmt.Println("===== Asistente Agricola =====")
		conversations, err := chatSvc.ListConversations(ctx, profile.ID)
		if err != nil {
			log.Fatalf("listar conversaciones: %v", err)
		}

		fmt.Println("Conversaciones disponibles:")
		for i, conv := range conversations {
			title := conv.Title
			if title == "" {
				title = "(sin titulo)"
			}
			fmt.Printf("[%d] %s (ID: %s)\n", i+1, title, conv.ID)
		}
		fmt.Println("[N] Nueva conversacion")
		fmt.Println("[S] Salir")
		fmt.Print("Selecciona una conversacion: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		var selected domain.Conversation
		switch {
		case strings.EqualFold(choice, "S"):
			os.Exit(0)
		case strings.EqualFold(choice, "N"):
			selected, err = chatSvc.CreateConversation(ctx, profile.ID)
			if err != nil {
				log.Fatalf("crear conversacion: %v", err)
			}
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(conversations) {
				fmt.Println("Seleccion invalida.")
				continue
			}
			selected = conversations[idx-1]
		}

		if err := chatFlow(ctx, reader, selected, chatSvc, hub); err != nil {
			log.Printf("error en chat: %v", err)
		}
	}
}

func chatFlow(ctx context.Context, reader *bufio.Reader, conv domain.Conversation, chatSvc *service.ChatService, hub realtime.Hub) error {
	history, err := chatSvc.ListMessages(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("cargar historial: %w", err)
	}
	view := service.NewMessageLog(history)
	for _, msg := range view.Messages() {
		fmt.Printf("%s > %s\n", roleLabel(msg.Role), msg.Content)
	}

	events, unsubscribe, err := hub.Subscribe(ctx, realtime.ConversationTopic(conv.ID))
	if err != nil {
		return fmt.Errorf("suscribirse a eventos: %w", err)
	}
	defer unsubscribe()

	fmt.Println("---- Modo Chat (escribe 'salir' para terminar chat) ----")
	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("leer input: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			fmt.Println("Saliendo del chat...")
			return nil
		}

		if _, _, err := chatSvc.Send(ctx, conv.ID, text); err != nil {
			fmt.Printf("error enviando mensaje: %v\n", err)
			continue
		}

		if reply, ok := awaitReply(conv.ID, events, chatSvc, view); ok {
			fmt.Printf("Asistente > %s\n", reply)
		} else {
			fmt.Println("Asistente > (sin respuesta)")
		}
	}
}

// awaitReply aplica los eventos de la conversación sobre la vista hasta
// que el stream del asistente termina y devuelve el contenido final del
// último mensaje del asistente en la vista.
func awaitReply(conversationID string, events <-chan realtime.Event, chatSvc *service.ChatService, view *service.MessageLog) (string, bool) {
	baseline := view.Len()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.After(2 * time.Minute)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return lastAssistantContent(view)
			}
			view.Apply(event)
		case <-ticker.C:
			if view.Len() > baseline && !chatSvc.Busy(conversationID) {
				if content, ok := lastAssistantContent(view); ok {
					return content, true
				}
			}
		case <-deadline:
			return lastAssistantContent(view)
		}
	}
}

func lastAssistantContent(view *service.MessageLog) (string, bool) {
	msgs := view.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant && msgs[i].Content != "" {
			return msgs[i].Content, true
		}
	}
	return "", false
}

func roleLabel(role string) string {
	if role == domain.RoleAssistant {
		return "Asistente"
	}
	return "Tu"
}

func ensureUser(ctx context.Context, repo repository.UserRepository, email string) (domain.User, error) {
	u, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u = domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func ensureProfile(ctx context.Context, repo repository.ProfileRepository, user domain.User) (domain.Profile, error) {
	p, err := repo.GetByUserID(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, err
	}

	now := time.Now().UTC()
	p = domain.Profile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		FullName:  "CLI Tester",
		UserType:  domain.UserTypeFarmer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
