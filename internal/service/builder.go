package service

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// BuildDocument maps Telegram document metadata and a saved blob onto a
// DocumentRecord. Fields are copied as-is.
func BuildDocument(doc *tgbotapi.Document, ref models.ContentRef) *models.DocumentRecord {
	return &models.DocumentRecord{
		FileRecord: models.FileRecord{
			RemoteFileID: doc.FileID,
			SizeBytes:    int64(doc.FileSize),
			Content:      ref,
		},
		Name:     doc.FileName,
		MimeType: doc.MimeType,
	}
}

// BuildPhoto maps one photo size variant and a saved blob onto a PhotoRecord.
func BuildPhoto(photo tgbotapi.PhotoSize, ref models.ContentRef) *models.PhotoRecord {
	return &models.PhotoRecord{
		FileRecord: models.FileRecord{
			RemoteFileID: photo.FileID,
			SizeBytes:    int64(photo.FileSize),
			Content:      ref,
		},
	}
}
