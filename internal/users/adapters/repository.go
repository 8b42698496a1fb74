package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-shop/internal/users/domain"
	apperrors "go-shop/pkg/errors"
)

// firstImage extracts the first entry of a jsonb image array
func firstImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil || len(images) == 0 {
		return ""
	}
	return images[0]
}

// UserModel is the GORM model for users
type UserModel struct {
	ID                  uint   `gorm:"primarykey"`
	ClerkID             string `gorm:"size:64;not null;uniqueIndex"`
	Email               string `gorm:"size:255"`
	Name                string `gorm:"size:255"`
	ProcessorCustomerID string `gorm:"size:128"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName specifies the table name
func (UserModel) TableName() string {
	return "users"
}

// AddressModel is the GORM model for saved addresses
type AddressModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index"`
	FullName  string `gorm:"size:255;not null"`
	Street    string `gorm:"size:255;not null"`
	City      string `gorm:"size:100;not null"`
	State     string `gorm:"size:100;not null"`
	Zip       string `gorm:"size:20;not null"`
	Phone     string `gorm:"size:30"`
	IsDefault bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (AddressModel) TableName() string {
	return "addresses"
}

// WishlistItemModel is the GORM model for wishlist items
type WishlistItemModel struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
	CreatedAt time.Time
}

// TableName specifies the table name
func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}

// GormUserRepository implements ports.Repository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Migrate creates the user tables
func (r *GormUserRepository) Migrate() error {
	return r.db.AutoMigrate(&UserModel{}, &AddressModel{}, &WishlistItemModel{})
}

// FindByClerkID returns the user for the identity subject, or nil when
// none exists
func (r *GormUserRepository) FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to look up user", err)
	}
	return toUser(&model), nil
}

// GetByID retrieves a user by internal ID
func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Take(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewUserNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get user", err)
	}
	return toUser(&model), nil
}

// Create persists a new user. Losing a concurrent insert race for the
// same ClerkID resolves to the row the winner wrote.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	model := &UserModel{
		ClerkID: user.ClerkID,
		Email:   user.Email,
		Name:    user.Name,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clerk_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return apperrors.NewInternal("failed to create user", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing UserModel
		if err := r.db.WithContext(ctx).Where("clerk_id = ?", user.ClerkID).Take(&existing).Error; err != nil {
			return apperrors.NewInternal("failed to resolve user after insert race", err)
		}
		model = &existing
	}

	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

// SetProcessorCustomerID stores the payment processor's customer reference
func (r *GormUserRepository) SetProcessorCustomerID(ctx context.Context, userID uint, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", userID).
		Update("processor_customer_id", customerID)
	if result.Error != nil {
		return apperrors.NewInternal("failed to store processor customer", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewUserNotFound(userID)
	}
	return nil
}

// ListCustomers retrieves every user, newest first
func (r *GormUserRepository) ListCustomers(ctx context.Context) ([]*domain.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list customers", err)
	}

	users := make([]*domain.User, len(models))
	for i := range models {
		users[i] = toUser(&models[i])
	}
	return users, nil
}

// ListAddresses retrieves a user's addresses, default first
func (r *GormUserRepository) ListAddresses(ctx context.Context, userID uint) ([]*domain.Address, error) {
	var models []AddressModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list addresses", err)
	}

	addresses := make([]*domain.Address, len(models))
	for i := range models {
		addresses[i] = toAddress(&models[i])
	}
	return addresses, nil
}

// GetAddress retrieves one of the user's addresses
func (r *GormUserRepository) GetAddress(ctx context.Context, userID, addressID uint) (*domain.Address, error) {
	var model AddressModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewAddressNotFound(addressID)
		}
		return nil, apperrors.NewInternal("failed to get address", err)
	}
	return toAddress(&model), nil
}

// CountAddresses counts a user's addresses
func (r *GormUserRepository) CountAddresses(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AddressModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.NewInternal("failed to count addresses", err)
	}
	return count, nil
}

// CreateAddress persists a new address
func (r *GormUserRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	model := toAddressModel(address)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create address", err)
	}
	address.ID = model.ID
	address.CreatedAt = model.CreatedAt
	return nil
}

// UpdateAddress persists address changes
func (r *GormUserRepository) UpdateAddress(ctx context.Context, address *domain.Address) error {
	result := r.db.WithContext(ctx).
		Model(&AddressModel{}).
		Where("id = ? AND user_id = ?", address.ID, address.UserID).
		Updates(map[string]interface{}{
			"full_name":  address.FullName,
			"street":     address.Street,
			"city":       address.City,
			"state":      address.State,
			"zip":        address.Zip,
			"phone":      address.Phone,
			"is_default": address.IsDefault,
		})
	if result.Error != nil {
		return apperrors.NewInternal("failed to update address", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewAddressNotFound(address.ID)
	}
	return nil
}

// DeleteAddress removes one of the user's addresses
func (r *GormUserRepository) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&AddressModel{})
	if result.Error != nil {
		return apperrors.NewInternal("failed to delete address", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewAddressNotFound(addressID)
	}
	return nil
}

// ClearDefaultAddress unsets the default flag on the user's addresses
func (r *GormUserRepository) ClearDefaultAddress(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(&AddressModel{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return apperrors.NewInternal("failed to clear default address", err)
	}
	return nil
}

// ProductExists reports whether a catalog product exists
func (r *GormUserRepository) ProductExists(ctx context.Context, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("products").
		Where("id = ?", productID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.NewInternal("failed to check product", err)
	}
	return count > 0, nil
}

// ListWishlist retrieves the user's wishlist joined with product state
func (r *GormUserRepository) ListWishlist(ctx context.Context, userID uint) ([]*domain.WishlistEntry, error) {
	var models []WishlistItemModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to list wishlist", err)
	}
	if len(models) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(models))
	for i, m := range models {
		ids[i] = m.ProductID
	}

	var products []struct {
		ID     uint
		Name   string
		Price  decimal.Decimal
		Images []byte
		Stock  int
	}
	err = r.db.WithContext(ctx).
		Table("products").
		Select("id, name, price, images, stock").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, apperrors.NewInternal("failed to read wishlist products", err)
	}

	byID := make(map[uint]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	var entries []*domain.WishlistEntry
	for _, m := range models {
		i, ok := byID[m.ProductID]
		if !ok {
			// Product removed from the catalog; the stale item is skipped
			continue
		}
		p := products[i]
		entries = append(entries, &domain.WishlistEntry{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     firstImage(p.Images),
			Stock:     p.Stock,
			AddedAt:   m.CreatedAt,
		})
	}
	return entries, nil
}

// AddWishlistItem adds a product to the user's wishlist; adding an
// already-listed product is a no-op
func (r *GormUserRepository) AddWishlistItem(ctx context.Context, userID, productID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&WishlistItemModel{UserID: userID, ProductID: productID}).Error
	if err != nil {
		return apperrors.NewInternal("failed to add wishlist item", err)
	}
	return nil
}

// RemoveWishlistItem removes a product from the user's wishlist
func (r *GormUserRepository) RemoveWishlistItem(ctx context.Context, userID, productID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&WishlistItemModel{})
	if result.Error != nil {
		return apperrors.NewInternal("failed to remove wishlist item", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("wishlist item", productID)
	}
	return nil
}

func toUser(model *UserModel) *domain.User {
	return &domain.User{
		ID:                  model.ID,
		ClerkID:             model.ClerkID,
		Email:               model.Email,
		Name:                model.Name,
		ProcessorCustomerID: model.ProcessorCustomerID,
		CreatedAt:           model.CreatedAt,
	}
}

func toAddress(model *AddressModel) *domain.Address {
	return &domain.Address{
		ID:        model.ID,
		UserID:    model.UserID,
		FullName:  model.FullName,
		Street:    model.Street,
		City:      model.City,
		State:     model.State,
		Zip:       model.Zip,
		Phone:     model.Phone,
		IsDefault: model.IsDefault,
		CreatedAt: model.CreatedAt,
	}
}

func toAddressModel(address *domain.Address) *AddressModel {
	return &AddressModel{
		ID:        address.ID,
		UserID:    address.UserID,
		FullName:  address.FullName,
		Street:    address.Street,
		City:      address.City,
		State:     address.State,
		Zip:       address.Zip,
		Phone:     address.Phone,
		IsDefault: address.IsDefault,
	}
}
