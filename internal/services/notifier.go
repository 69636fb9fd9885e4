package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/rs/zerolog/log"
)

// Notifier writes like, comment and follow notifications. Failures are
// logged and never fail the triggering action.
type Notifier struct {
	notifications repositories.NotificationRepository
}

func NewNotifier(notifications repositories.NotificationRepository) *Notifier {
	return &Notifier{notifications: notifications}
}

func (n *Notifier) MemeLiked(ctx context.Context, actor *models.User, meme *models.Meme) {
	id := meme.HexID()
	n.send(ctx, models.NotificationLike, actor.ID, meme.AuthorID, &id,
		fmt.Sprintf("%s liked your meme", actor.Username))
}

func (n *Notifier) MemeCommented(ctx context.Context, actor *models.User, meme *models.Meme, content string) {
	id := meme.HexID()
	n.send(ctx, models.NotificationComment, actor.ID, meme.AuthorID, &id,
		fmt.Sprintf("%s commented: %s...", actor.Username, truncate(content, 30)))
}

func (n *Notifier) Followed(ctx context.Context, actor *models.User, recipientID uint) {
	n.send(ctx, models.NotificationFollow, actor.ID, recipientID, nil,
		fmt.Sprintf("%s started following you", actor.Username))
}

func (n *Notifier) send(ctx context.Context, kind string, actorID, recipientID uint, memeID *string, preview string) {
	if actorID == recipientID {
		return
	}
	notif := &models.Notification{
		Type:        kind,
		ActorID:     actorID,
		RecipientID: recipientID,
		MemeID:      memeID,
		TextPreview: truncate(preview, models.MaxPreviewLength),
	}
	if err := n.notifications.CreateNotification(ctx, notif); err != nil {
		log.Error().Err(err).Str("type", kind).Uint("recipient_id", recipientID).Msg("failed to create notification")
	}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
