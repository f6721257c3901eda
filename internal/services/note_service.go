package services

import (
	"context"
	"fmt"

	"github.com/veridianlabs/sessiond/internal/models"
	"github.com/veridianlabs/sessiond/internal/tokencache"
	"gorm.io/gorm"
)

// NoteService stores opaque text tied to the user a token resolves to.
type NoteService struct {
	db     *gorm.DB
	tokens tokencache.Store
}

func NewNoteService(db *gorm.DB, tokens tokencache.Store) *NoteService {
	return &NoteService{db: db, tokens: tokens}
}

// Save resolves the token and persists the text against the owner.
func (s *NoteService) Save(ctx context.Context, token, text string) error {
	user, err := s.tokens.Lookup(token)
	if err != nil {
		return ErrUserDoesntExist
	}

	note := models.Note{UserID: user.ID, Text: text}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
