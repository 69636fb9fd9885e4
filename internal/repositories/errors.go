package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every repository when the requested row or document does not exist
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when an insert hits an existing unique pair
var ErrAlreadyExists = errors.New("record already exists")

// translate maps driver-specific not-found errors onto ErrNotFound
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
