package usecase

import (
	"context"

	mediausecase "toursApi/internal/modules/media/application/usecase"
	media "toursApi/internal/modules/media/domain"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/modules/users/domain"
	"toursApi/internal/shared/apperror"
)

const MessageNotForPasswords = "This route is not for password updates. Please use /updateMyPassword."

// AccountService lets signed-in users manage their own profile.
type AccountService struct {
	users  *resourceusecase.Service
	photos *mediausecase.Processor
}

func NewAccountService(users *resourceusecase.Service, photos *mediausecase.Processor) *AccountService {
	return &AccountService{users: users, photos: photos}
}

func (s *AccountService) Me(ctx context.Context, userID string) (resource.Document, error) {
	return s.users.GetOne(ctx, userID)
}

// UpdateMe changes name, email and, when photo is given, the profile photo.
func (s *AccountService) UpdateMe(ctx context.Context, userID string, payload resource.Document, photo *media.Upload) (resource.Document, error) {
	_, hasPassword := payload[domain.FieldPassword]
	_, hasConfirm := payload[domain.FieldPasswordConfirm]
	if hasPassword || hasConfirm {
		return nil, apperror.BadRequest(MessageNotForPasswords)
	}

	changes := pick(payload, domain.SelfEditable...)
	if photo != nil && s.photos != nil {
		name, err := s.photos.UserPhoto(ctx, userID, *photo)
		if err != nil {
			return nil, err
		}
		changes[domain.FieldPhoto] = name
	}
	return s.users.UpdateOne(ctx, userID, changes)
}

// DeleteMe deactivates the account. Deactivated users disappear from every
// read, including sign in.
func (s *AccountService) DeleteMe(ctx context.Context, userID string) error {
	_, err := s.users.Store().UpdateByID(ctx, userID, resource.Document{domain.FieldActive: false})
	if err != nil {
		return resourceusecase.Classify(err)
	}
	return nil
}
