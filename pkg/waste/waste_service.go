package waste

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"ecocycle-backend/domain"
	"ecocycle-backend/entities"
	"ecocycle-backend/internal/utils/storage"
	"ecocycle-backend/pkg/classifier"
	"ecocycle-backend/pkg/location"

	"github.com/google/uuid"
)

type (
	WasteService interface {
		SubmitWastePost(ctx context.Context, req domain.SubmitWastePostRequest) (domain.SubmitWastePostResponse, error)
		AnalyzeWasteImage(ctx context.Context, image []byte, mimeType string) (domain.ClassificationResult, error)
		BrowseWastePosts(ctx context.Context, tags []string) ([]domain.WastePostResponse, error)
		GetWastePostImage(ctx context.Context, id uint) ([]byte, error)
	}

	wasteService struct {
		wasteRepository WasteRepository
		classifier      classifier.ClassifierService
		jitterer        *location.Jitterer
		s3              storage.AwsS3
	}
)

func NewWasteService(
	wasteRepository WasteRepository,
	classifierService classifier.ClassifierService,
	jitterer *location.Jitterer,
	s3 storage.AwsS3,
) WasteService {
	return &wasteService{
		wasteRepository: wasteRepository,
		classifier:      classifierService,
		jitterer:        jitterer,
		s3:              s3,
	}
}

// SubmitWastePost runs the full ingestion flow: classify, gate on the
// organic verdict, jitter the raw location, persist. This is the only place
// the organic gate is enforced; rejected analyses never reach storage.
func (s *wasteService) SubmitWastePost(ctx context.Context, req domain.SubmitWastePostRequest) (domain.SubmitWastePostResponse, error) {
	if !domain.ValidProviderType(req.ProviderType) {
		return domain.SubmitWastePostResponse{}, fmt.Errorf("%w: %q", domain.ErrInvalidProviderType, req.ProviderType)
	}

	file, err := req.Image.Open()
	if err != nil {
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{Stage: domain.StageClassification, Err: err}
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{Stage: domain.StageClassification, Err: err}
	}

	return s.submit(ctx, req, imageData, classifier.DetectMimeType(req.Image))
}

func (s *wasteService) submit(ctx context.Context, req domain.SubmitWastePostRequest, imageData []byte, mimeType string) (domain.SubmitWastePostResponse, error) {
	analysis, err := s.classifier.Classify(ctx, imageData, mimeType)
	if err != nil {
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{Stage: domain.StageClassification, Err: err}
	}

	if !analysis.IsOrganicWaste {
		reason := analysis.RejectionReason
		if reason == "" {
			reason = "bukan limbah organik"
		}
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{
			Stage: domain.StageRejected, Reason: reason, Err: domain.ErrNotOrganicWaste,
		}
	}

	privLat, privLon, err := s.jitterer.Jitter(req.Lat, req.Lon)
	if err != nil {
		return domain.SubmitWastePostResponse{}, err
	}

	// The blob in the row is authoritative; the S3 copy only feeds map
	// popup thumbnails, so an upload failure does not fail the submission.
	var imageURL string
	if s.s3 != nil {
		objectKey, uploadErr := s.s3.UploadFile(
			fmt.Sprintf("waste-post-%s", uuid.New().String()), imageData, mimeType, "waste-posts",
		)
		if uploadErr != nil {
			log.Printf("waste post image upload failed: %v", uploadErr)
		} else {
			imageURL = s.s3.GetPublicLinkKey(objectKey)
		}
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{Stage: domain.StageStorage, Err: err}
	}

	post := &entities.WastePost{
		ProviderType:  req.ProviderType,
		WasteCategory: analysis.MainComposition,
		SuitableFor:   strings.Join(analysis.SuitabilityTags, ", "),
		WeightEst:     analysis.EstimatedWeightKg,
		Lat:           privLat,
		Lon:           privLon,
		ContactInfo:   req.ContactInfo,
		ImageURL:      imageURL,
		ImageBlob:     imageData,
		AIAnalysis:    string(analysisJSON),
	}

	if err := s.wasteRepository.AddWastePost(ctx, post); err != nil {
		return domain.SubmitWastePostResponse{}, &domain.SubmissionError{Stage: domain.StageStorage, Err: err}
	}

	return domain.SubmitWastePostResponse{
		ID:            post.ID,
		ProviderType:  post.ProviderType,
		WasteCategory: post.WasteCategory,
		SuitableFor:   post.SuitableFor,
		WeightEst:     post.WeightEst,
		Lat:           post.Lat,
		Lon:           post.Lon,
		Analysis:      analysis,
		CreatedAt:     post.CreatedAt,
	}, nil
}

// AnalyzeWasteImage classifies without writing anything, for the preview
// step before a provider confirms a post.
func (s *wasteService) AnalyzeWasteImage(ctx context.Context, image []byte, mimeType string) (domain.ClassificationResult, error) {
	return s.classifier.Classify(ctx, image, mimeType)
}

func (s *wasteService) BrowseWastePosts(ctx context.Context, tags []string) ([]domain.WastePostResponse, error) {
	posts, err := s.wasteRepository.GetWastePosts(ctx, tags)
	if err != nil {
		return nil, err
	}

	response := make([]domain.WastePostResponse, 0, len(posts))
	for _, post := range posts {
		response = append(response, domain.WastePostResponse{
			ID:            post.ID,
			ProviderType:  post.ProviderType,
			WasteCategory: post.WasteCategory,
			SuitableFor:   post.SuitableFor,
			WeightEst:     post.WeightEst,
			Lat:           post.Lat,
			Lon:           post.Lon,
			ContactInfo:   post.ContactInfo,
			ImageURL:      post.ImageURL,
			WhatsAppURL:   domain.WhatsAppLink(post.ContactInfo, post.WasteCategory, post.WeightEst),
			AIAnalysis:    post.AIAnalysis,
			CreatedAt:     post.CreatedAt,
		})
	}
	return response, nil
}

func (s *wasteService) GetWastePostImage(ctx context.Context, id uint) ([]byte, error) {
	post, err := s.wasteRepository.GetWastePostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(post.ImageBlob) == 0 {
		return nil, domain.ErrPostNotFound
	}
	return post.ImageBlob, nil
}
