package catalog

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/events"
	"storefront/internal/imagestore"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const placeholderImageURL = "https://placehold.co/600x400/png?text="

// Upload is an image file attached to a product create or update.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries the editable product fields. On update, KeptImages lists the
// existing images to retain, in display order; uploads are appended after them. A nil
// KeptImages keeps every existing image, an empty one drops them all.
type ProductInput struct {
	Name           string
	Category       string
	Price          decimal.Decimal
	Description    string
	Specifications models.Specifications
	BoxContents    []string
	InStock        *bool
	ProductCode    string
	KeptImages     []string
	Uploads        []Upload
}

type Service struct {
	products repository.ProductRepository
	cache    cache.Cache
	events   events.Publisher
	images   imagestore.Store
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(products repository.ProductRepository, c cache.Cache, pub events.Publisher, images imagestore.Store, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		cache:    c,
		events:   pub,
		images:   images,
		logger:   logger.Named("catalog"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListProducts(ctx context.Context, q Query) ([]models.Product, error) {
	query := q.Normalize()
	key := cache.ProductListPrefix + cacheKey(query)

	var products []models.Product
	if s.cached(ctx, key, &products) {
		return products, nil
	}

	products, err := s.products.Find(ctx, query)
	if err != nil {
		return nil, s.storeError("list products", err)
	}
	s.store(ctx, key, products)
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NotFound("product")
	}

	var product models.Product
	if s.cached(ctx, cache.ProductKey(id), &product) {
		return &product, nil
	}

	found, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get product", err)
	}
	s.store(ctx, cache.ProductKey(id), found)
	return found, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if s.cached(ctx, cache.CategoriesKey, &categories) {
		return categories, nil
	}

	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, s.storeError("list categories", err)
	}
	s.store(ctx, cache.CategoriesKey, categories)
	return categories, nil
}

func (s *Service) CreateProduct(ctx context.Context, id *auth.Identity, in ProductInput) (*models.Product, error) {
	if err := auth.RequireAdmin(id); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	uploaded, err := s.saveUploads(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:        uuid.NewString(),
		InStock:   true,
		CreatedAt: s.now(),
	}
	applyInput(product, in)
	product.Images = withPlaceholder(append(cleanList(in.KeptImages), uploaded...), product.Name)

	if err := s.products.Create(ctx, product); err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, s.storeError("create product", err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("admin_id", id.UserID))
	s.invalidateProduct(ctx, product.ID)
	s.publish(ctx, events.New(events.ProductCreated, product.ID, product))
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id *auth.Identity, productID string, in ProductInput) (*models.Product, error) {
	if err := auth.RequireAdmin(id); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, s.storeError("load product", err)
	}
	previous := product.Images

	uploaded, err := s.saveUploads(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	kept := cleanList(in.KeptImages)
	if in.KeptImages == nil {
		kept = withoutPlaceholder(previous)
	}

	applyInput(product, in)
	product.Images = withPlaceholder(append(kept, uploaded...), product.Name)

	if err := s.products.Update(ctx, product); err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, s.storeError("update product", err)
	}

	s.discardUploads(ctx, dropped(previous, product.Images))
	s.logger.Info("product updated", zap.String("product_id", product.ID), zap.String("admin_id", id.UserID))
	s.invalidateProduct(ctx, product.ID)
	s.publish(ctx, events.New(events.ProductUpdated, product.ID, product))
	return product, nil
}

// DeleteProduct removes the product and its uploaded images. Orders keep their item
// snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id *auth.Identity, productID string) error {
	if err := auth.RequireAdmin(id); err != nil {
		return err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return s.storeError("load product", err)
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return s.storeError("delete product", err)
	}

	s.discardUploads(ctx, product.Images)
	s.logger.Info("product deleted", zap.String("product_id", productID), zap.String("admin_id", id.UserID))
	s.invalidateProduct(ctx, productID)
	s.publish(ctx, events.New(events.ProductDeleted, productID, nil))
	return nil
}

// SetInStock flips the availability flag of one product.
func (s *Service) SetInStock(ctx context.Context, id *auth.Identity, productID string, inStock bool) error {
	if err := auth.RequireAdmin(id); err != nil {
		return err
	}
	if err := s.products.SetInStock(ctx, productID, inStock); err != nil {
		return s.storeError("set in stock", err)
	}

	s.logger.Info("product stock toggled",
		zap.String("product_id", productID),
		zap.Bool("in_stock", inStock),
		zap.String("admin_id", id.UserID),
	)
	s.invalidateProduct(ctx, productID)
	s.publish(ctx, events.New(events.ProductStockToggle, productID, map[string]bool{"inStock": inStock}))
	return nil
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return apperr.Validation("category is required")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	for _, spec := range in.Specifications {
		if strings.TrimSpace(spec.Key) == "" {
			return apperr.Validation("specification keys must not be empty")
		}
	}
	return nil
}

func applyInput(p *models.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Price = in.Price
	p.Description = strings.TrimSpace(in.Description)
	p.BoxContents = cleanList(in.BoxContents)

	specs := make(map[string]string, len(in.Specifications))
	for _, spec := range in.Specifications {
		specs[spec.Key] = spec.Value
	}
	p.Specifications = models.SpecificationsFromMap(specs)

	p.ProductCode = nil
	if code := strings.TrimSpace(in.ProductCode); code != "" {
		p.ProductCode = &code
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}

func cleanList(values []string) models.StringList {
	out := make(models.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func withPlaceholder(images models.StringList, name string) models.StringList {
	if len(images) > 0 {
		return images
	}
	return models.StringList{placeholderImageURL + url.QueryEscape(name)}
}

func withoutPlaceholder(images models.StringList) models.StringList {
	out := make(models.StringList, 0, len(images))
	for _, ref := range images {
		if !strings.HasPrefix(ref, placeholderImageURL) {
			out = append(out, ref)
		}
	}
	return out
}

// dropped returns the entries of before that are absent from after.
func dropped(before, after models.StringList) []string {
	keep := make(map[string]struct{}, len(after))
	for _, ref := range after {
		keep[ref] = struct{}{}
	}
	var out []string
	for _, ref := range before {
		if _, ok := keep[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

func (s *Service) saveUploads(ctx context.Context, uploads []Upload) ([]string, error) {
	refs := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.images.Save(ctx, up.Filename, up.Content)
		if err != nil {
			s.discardUploads(ctx, refs)
			if apperr.KindOf(err) == apperr.KindValidation {
				return nil, err
			}
			return nil, s.storeError("save image", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// discardUploads removes local uploads best-effort; external references are skipped.
func (s *Service) discardUploads(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if !imagestore.IsUpload(ref) {
			continue
		}
		if err := s.images.Delete(ctx, ref); err != nil {
			s.logger.Warn("image cleanup failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (s *Service) invalidateProduct(ctx context.Context, productID string) {
	if err := s.cache.Invalidate(ctx, cache.ProductListPrefix, cache.CategoriesKey, cache.ProductKey(productID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("product_id", productID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", e.Type), zap.String("key", e.Key), zap.Error(err))
	}
}

func (s *Service) cached(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) storeError(op string, err error) error {
	err = apperr.FromStore(err)
	if apperr.KindOf(err) == apperr.KindPersistence {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return err
}
