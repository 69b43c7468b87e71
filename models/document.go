package models

import (
	"context"
	"errors"
	"time"

	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/utils"
	"gorm.io/gorm"
)

type Document struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	BusinessId    string                `gorm:"index;not null" json:"business_id"`
	ReferenceType DocumentReferenceType `gorm:"type:enum('fundings','accounts');not null;index:idx_document_ref,priority:1" json:"reference_type"`
	ReferenceId   int                   `gorm:"not null;index:idx_document_ref,priority:2" json:"reference_id"`
	ObjectKey     string                `gorm:"size:512;not null" json:"object_key"`
	DocumentUrl   string                `gorm:"size:1024;not null" json:"document_url"`
	ThumbnailUrl  string                `gorm:"size:1024" json:"thumbnail_url"`
	FileName      string                `gorm:"size:255" json:"file_name"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

type NewDocument struct {
	ReferenceType      DocumentReferenceType `json:"reference_type" binding:"required"`
	ReferenceId        int                   `json:"reference_id" binding:"required"`
	ObjectKey          string                `json:"object_key" binding:"required"`
	ThumbnailObjectKey string                `json:"thumbnail_object_key"`
	FileName           string                `json:"file_name"`
}

func (d Document) GetBusinessId() string {
	return d.BusinessId
}

func (d Document) GetId() int {
	return d.ID
}

func (d Document) GetReferenceId() int {
	return d.ReferenceId
}

// validateDocumentReference fails closed on unknown reference types.
func validateDocumentReference(ctx context.Context, businessId string, refType DocumentReferenceType, refId int) error {
	var err error
	switch refType {
	case DocumentReferenceTypeFunding:
		err = utils.ValidateResourceId[Funding](ctx, businessId, refId)
	case DocumentReferenceTypeAccount:
		err = utils.ValidateResourceId[Account](ctx, businessId, refId)
	default:
		return errors.New("unauthorized")
	}
	if err != nil {
		return errors.New("unauthorized")
	}
	return nil
}

func CreateDocument(ctx context.Context, input *NewDocument) (*Document, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentReference(ctx, businessId, input.ReferenceType, input.ReferenceId); err != nil {
		return nil, err
	}
	document := Document{
		BusinessId:    businessId,
		ReferenceType: input.ReferenceType,
		ReferenceId:   input.ReferenceId,
		ObjectKey:     input.ObjectKey,
		DocumentUrl:   utils.BuildObjectAccessURL(input.ObjectKey),
		FileName:      input.FileName,
	}
	if input.ThumbnailObjectKey != "" {
		document.ThumbnailUrl = utils.BuildObjectAccessURL(input.ThumbnailObjectKey)
	}
	if err := config.GetDB().WithContext(ctx).Create(&document).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func GetDocument(ctx context.Context, id int) (*Document, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Document](ctx, businessId, id)
}

func GetDocuments(ctx context.Context, refType DocumentReferenceType, refId int) ([]*Document, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var results []*Document
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ? AND reference_type = ? AND reference_id = ?", businessId, refType, refId).
		Order("id").Find(&results).Error
	return results, err
}

// DeleteDocument removes the row, then the stored objects.
func DeleteDocument(ctx context.Context, id int) (*Document, error) {
	businessId, err := businessIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	document, err := utils.FetchModel[Document](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Delete(document).Error
	})
	if err != nil {
		return nil, err
	}
	if utils.StorageEnabled() {
		for _, key := range []string{document.ObjectKey, utils.ExtractObjectKeyFromURL(document.ThumbnailUrl)} {
			if key == "" {
				continue
			}
			if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
				logModelError("DeleteDocument", key, err)
			}
		}
	}
	return document, nil
}
