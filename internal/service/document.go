package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pagination"
	"github.com/cloo-solutions/ragpipe/internal/repository"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
	DeleteObject(ctx context.Context, key string) error
}

type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
	ListByProjectWithCursor(ctx context.Context, projectID string, cursor *pagination.Cursor, limit int) (*repository.DocumentPageResult, error)
}

// DocumentService manages the two-step document upload: hand out a presigned
// URL, then register the document once the bytes are verified in storage.
// Only registered documents are visible to the pipeline.
type DocumentService struct {
	documents     DocumentRepositoryInterface
	storageClient StorageClientInterface
	uuidGen       UUIDGenerator
}

func NewDocumentService(documents DocumentRepositoryInterface, storageClient StorageClientInterface) *DocumentService {
	return &DocumentService{
		documents:     documents,
		storageClient: storageClient,
		uuidGen:       &DefaultUUIDGenerator{},
	}
}

func NewDocumentServiceWithUUIDGen(documents DocumentRepositoryInterface, storageClient StorageClientInterface, uuidGen UUIDGenerator) *DocumentService {
	return &DocumentService{
		documents:     documents,
		storageClient: storageClient,
		uuidGen:       uuidGen,
	}
}

type InitUploadInput struct {
	ProjectID   string
	Filename    string
	ContentType string
}

type InitUploadResult struct {
	DocumentID string
	StorageKey string
	UploadURL  string
}

func (s *DocumentService) InitUpload(ctx context.Context, input InitUploadInput) (*InitUploadResult, error) {
	if input.ProjectID == "" || input.Filename == "" {
		return nil, domain.ErrMissingRequiredField
	}

	documentID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.ProjectID, documentID, input.Filename)

	uploadURL, err := s.storageClient.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitUploadResult{
		DocumentID: documentID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
	}, nil
}

type CompleteUploadInput struct {
	DocumentID  string
	ProjectID   string
	Filename    string
	ContentType string
	StorageKey  string
}

func (s *DocumentService) CompleteUpload(ctx context.Context, input CompleteUploadInput) (*domain.Document, error) {
	meta, err := s.storageClient.HeadObject(ctx, input.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentUploadNotFound, err)
	}

	doc := &domain.Document{
		ID:         input.DocumentID,
		ProjectID:  input.ProjectID,
		Filename:   input.Filename,
		MimeType:   input.ContentType,
		StorageKey: input.StorageKey,
		SizeBytes:  meta.ContentLength,
		CreatedAt:  time.Now().UTC(),
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) GetByID(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.documents.GetByID(ctx, documentID)
}

func (s *DocumentService) List(ctx context.Context, projectID string, cursor string, limit int) (*repository.DocumentPageResult, error) {
	var c *pagination.Cursor
	if cursor != "" {
		decoded, err := pagination.DecodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		c = decoded
	}
	return s.documents.ListByProjectWithCursor(ctx, projectID, c, limit)
}

func (s *DocumentService) GetDownloadURL(ctx context.Context, documentID string) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	url, err := s.storageClient.GenerateDownloadURL(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, nil
}

// Delete removes a document and every derived artifact. The database row goes
// first so the document disappears from listings even if the storage delete
// fails; a leftover object is logged, not surfaced.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	if err := s.storageClient.DeleteObject(ctx, doc.StorageKey); err != nil {
		log.Printf("document: delete %s: object %s not removed from storage: %v", documentID, doc.StorageKey, err)
	}
	return nil
}

func buildStorageKey(projectID, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", projectID, documentID, filename)
}
