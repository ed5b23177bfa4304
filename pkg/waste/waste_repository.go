package waste

import (
	"context"
	"errors"
	"strings"

	"ecocycle-backend/entities"

	"gorm.io/gorm"
)

// listColumns excludes image_blob so map listings never drag image bytes
// through a full-table scan.
var listColumns = []string{
	"id", "provider_type", "waste_category", "suitable_for", "weight_est",
	"lat", "lon", "contact_info", "image_url", "ai_analysis", "created_at",
}

type (
	WasteRepository interface {
		AddWastePost(ctx context.Context, post *entities.WastePost) error
		GetWastePosts(ctx context.Context, tags []string) ([]*entities.WastePost, error)
		GetWastePostByID(ctx context.Context, id uint) (*entities.WastePost, error)
	}

	wasteRepository struct {
		db *gorm.DB
	}
)

func NewWasteRepository(db *gorm.DB) WasteRepository {
	return &wasteRepository{db: db}
}

func (r *wasteRepository) AddWastePost(ctx context.Context, post *entities.WastePost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetWastePosts returns posts newest first, ties broken by id. With tags it
// returns posts whose suitable_for list contains any of them. Matching
// anchors each tag between list delimiters instead of a raw substring
// match, so one tag name being a prefix of another cannot false-positive.
func (r *wasteRepository) GetWastePosts(ctx context.Context, tags []string) ([]*entities.WastePost, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.WastePost{}).
		Select(listColumns).
		Order("created_at DESC, id DESC")

	conds := make([]string, 0, len(tags))
	args := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		conds = append(conds, "(', ' || suitable_for || ',') LIKE ?")
		args = append(args, "%, "+tag+",%")
	}
	if len(conds) > 0 {
		query = query.Where(strings.Join(conds, " OR "), args...)
	}

	var posts []*entities.WastePost
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *wasteRepository) GetWastePostByID(ctx context.Context, id uint) (*entities.WastePost, error) {
	var post entities.WastePost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, err
	}
	return &post, nil
}
