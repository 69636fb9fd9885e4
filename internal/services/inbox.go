package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anonto42/memepie/backend/internal/metrics"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
)

type Folder string

const (
	FolderPrimary  Folder = "primary"
	FolderRequests Folder = "requests"
)

// ClassifyThread is the triage rule: an accepted thread, or one whose other
// participant the viewer follows, is primary. Everything else is a request.
func ClassifyThread(thread *models.Thread, viewerFollowsOther bool) Folder {
	if thread.IsAccepted || viewerFollowsOther {
		return FolderPrimary
	}
	return FolderRequests
}

type InboxEntry struct {
	Thread      models.Thread      `json:"thread"`
	OtherUser   models.UserCompact `json:"other_user"`
	LastMessage *models.Message    `json:"last_message,omitempty"`
	IsUnread    bool               `json:"is_unread"`
	Folder      Folder             `json:"folder"`
}

type Inbox struct {
	Primary  []InboxEntry
	Requests []InboxEntry
}

type ThreadView struct {
	Thread    models.Thread      `json:"thread"`
	OtherUser models.UserCompact `json:"other_user"`
	Messages  []models.Message   `json:"messages"`
	IsRequest bool               `json:"is_request"`
	CanReply  bool               `json:"can_reply"`
}

type InboxService struct {
	threads  repositories.ThreadRepository
	messages repositories.MessageRepository
	follows  repositories.FollowRepository
	users    repositories.UserRepository
	memes    repositories.MemeRepository
}

func NewInboxService(threads repositories.ThreadRepository, messages repositories.MessageRepository, follows repositories.FollowRepository, users repositories.UserRepository, memes repositories.MemeRepository) *InboxService {
	return &InboxService{threads: threads, messages: messages, follows: follows, users: users, memes: memes}
}

// Classify triages thread from viewerID's point of view
func (s *InboxService) Classify(ctx context.Context, thread *models.Thread, viewerID uint) (Folder, error) {
	if !thread.HasParticipant(viewerID) {
		return "", ErrNotParticipant
	}
	if thread.IsAccepted {
		return FolderPrimary, nil
	}
	following, err := s.follows.IsFollowing(ctx, viewerID, thread.OtherParticipant(viewerID))
	if err != nil {
		return "", err
	}
	return ClassifyThread(thread, following), nil
}

// CreateThread returns the conversation between initiatorID and otherID,
// creating it if needed. A new thread is accepted immediately when otherID
// already follows initiatorID.
func (s *InboxService) CreateThread(ctx context.Context, initiatorID, otherID uint) (*models.Thread, bool, error) {
	if initiatorID == otherID {
		return nil, false, ErrSelfAction
	}
	if _, err := s.users.GetUserByID(ctx, otherID); err != nil {
		return nil, false, err
	}

	existing, err := s.threads.FindThreadBetween(ctx, initiatorID, otherID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	otherFollows, err := s.follows.IsFollowing(ctx, otherID, initiatorID)
	if err != nil {
		return nil, false, err
	}
	thread, created, err := s.threads.GetOrCreateThread(ctx, initiatorID, otherID, otherFollows)
	if err != nil {
		return nil, false, fmt.Errorf("get or create thread: %w", err)
	}
	if created {
		metrics.ThreadsCreated.WithLabelValues(strconv.FormatBool(thread.IsAccepted)).Inc()
	}
	return thread, created, nil
}

func (s *InboxService) participantThread(ctx context.Context, threadID, viewerID uint) (*models.Thread, error) {
	thread, err := s.threads.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	return thread, nil
}

// Inbox splits viewerID's threads into primary and requests, most recent first
func (s *InboxService) Inbox(ctx context.Context, viewerID uint) (*Inbox, error) {
	threads, err := s.threads.GetThreadsForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	inbox := &Inbox{Primary: []InboxEntry{}, Requests: []InboxEntry{}}
	if len(threads) == 0 {
		return inbox, nil
	}

	threadIDs := make([]uint, len(threads))
	otherIDs := make([]uint, len(threads))
	for i, t := range threads {
		threadIDs[i] = t.ID
		otherIDs[i] = t.OtherParticipant(viewerID)
	}

	following, err := s.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	followingSet := make(map[uint]bool, len(following))
	for _, id := range following {
		followingSet[id] = true
	}

	others, err := s.users.GetUsersByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	otherByID := make(map[uint]models.User, len(others))
	for _, u := range others {
		otherByID[u.ID] = u
	}

	last, err := s.messages.GetLastMessages(ctx, threadIDs)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.GetUnreadThreadIDs(ctx, viewerID, threadIDs)
	if err != nil {
		return nil, err
	}

	for i := range threads {
		t := threads[i]
		otherID := t.OtherParticipant(viewerID)
		other := otherByID[otherID]
		entry := InboxEntry{
			Thread:    t,
			OtherUser: other.ToCompact(),
			IsUnread:  unread[t.ID],
			Folder:    ClassifyThread(&t, followingSet[otherID]),
		}
		if m, ok := last[t.ID]; ok {
			entry.LastMessage = &m
		}
		if entry.Folder == FolderPrimary {
			inbox.Primary = append(inbox.Primary, entry)
		} else {
			inbox.Requests = append(inbox.Requests, entry)
		}
	}
	return inbox, nil
}

// OpenThread loads a conversation for viewerID. Viewing it marks every unread
// message the other participant sent as read.
func (s *InboxService) OpenThread(ctx context.Context, threadID, viewerID uint) (*ThreadView, error) {
	thread, err := s.participantThread(ctx, threadID, viewerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkThreadRead(ctx, thread.ID, viewerID); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetMessagesByThreadID(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	folder, err := s.Classify(ctx, thread, viewerID)
	if err != nil {
		return nil, err
	}
	view := &ThreadView{
		Thread:    *thread,
		Messages:  messages,
		IsRequest: folder == FolderRequests,
		CanReply:  canReply(thread, viewerID, folder),
	}
	if other, err := s.users.GetUserByID(ctx, thread.OtherParticipant(viewerID)); err == nil {
		view.OtherUser = other.ToCompact()
	}
	if view.Messages == nil {
		view.Messages = []models.Message{}
	}
	return view, nil
}

// MarkRead marks viewerID's inbound messages in the thread as read
func (s *InboxService) MarkRead(ctx context.Context, threadID, viewerID uint) (int64, error) {
	thread, err := s.participantThread(ctx, threadID, viewerID)
	if err != nil {
		return 0, err
	}
	return s.messages.MarkThreadRead(ctx, thread.ID, viewerID)
}

// canReply: the initiator may always write into the thread they started; the
// recipient must accept (or follow back) first.
func canReply(thread *models.Thread, senderID uint, folder Folder) bool {
	return folder == FolderPrimary || thread.InitiatorID == senderID
}

// SendMessage appends a message from senderID and bumps the thread's activity time
func (s *InboxService) SendMessage(ctx context.Context, threadID, senderID uint, text string, memeID *string) (*models.Message, error) {
	thread, err := s.participantThread(ctx, threadID, senderID)
	if err != nil {
		return nil, err
	}
	folder, err := s.Classify(ctx, thread, senderID)
	if err != nil {
		return nil, err
	}
	if !canReply(thread, senderID, folder) {
		return nil, ErrThreadIsRequest
	}
	return s.post(ctx, thread, senderID, text, memeID)
}

func (s *InboxService) post(ctx context.Context, thread *models.Thread, senderID uint, text string, memeID *string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && memeID == nil {
		return nil, ErrEmptyMessage
	}
	if memeID != nil {
		if _, err := s.memes.GetMemeByID(ctx, *memeID); err != nil {
			return nil, err
		}
	}
	msg := &models.Message{ThreadID: thread.ID, SenderID: senderID, Text: text, MemeID: memeID}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.threads.TouchThread(ctx, thread.ID, msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

// ShareMeme sends memeID to recipientID, starting a conversation if there is none
func (s *InboxService) ShareMeme(ctx context.Context, senderID, recipientID uint, memeID, text string) (*models.Thread, *models.Message, error) {
	if _, err := s.memes.GetMemeByID(ctx, memeID); err != nil {
		return nil, nil, err
	}
	thread, _, err := s.CreateThread(ctx, senderID, recipientID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.post(ctx, thread, senderID, text, &memeID)
	if err != nil {
		return nil, nil, err
	}
	return thread, msg, nil
}

// Accept moves a request into primary. Acceptance is permanent.
func (s *InboxService) Accept(ctx context.Context, threadID, viewerID uint) (*models.Thread, error) {
	thread, err := s.participantThread(ctx, threadID, viewerID)
	if err != nil {
		return nil, err
	}
	if !thread.IsAccepted {
		if err := s.threads.AcceptThread(ctx, thread.ID); err != nil {
			return nil, err
		}
		thread.IsAccepted = true
	}
	return thread, nil
}

// Decline deletes the thread and all of its messages
func (s *InboxService) Decline(ctx context.Context, threadID, viewerID uint) error {
	thread, err := s.participantThread(ctx, threadID, viewerID)
	if err != nil {
		return err
	}
	return s.threads.DeleteThread(ctx, thread.ID)
}

func (s *InboxService) UnreadCount(ctx context.Context, viewerID uint) (int64, error) {
	return s.messages.CountUnread(ctx, viewerID)
}
