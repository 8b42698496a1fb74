package application

import (
	"context"

	"go.uber.org/zap"

	"go-shop/internal/users/domain"
	"go-shop/internal/users/ports"
	"go-shop/pkg/errors"
	"go-shop/pkg/logger"
)

// UserUseCase handles user business logic
type UserUseCase struct {
	repo ports.Repository
	log  *logger.Logger
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(repo ports.Repository, log *logger.Logger) *UserUseCase {
	return &UserUseCase{repo: repo, log: log}
}

// Resolve maps a verified identity to the internal user record, creating
// it on first sight. It satisfies the UserResolver port of the orders
// context.
func (uc *UserUseCase) Resolve(ctx context.Context, clerkID, email, name string) (uint, error) {
	user, err := uc.repo.FindByClerkID(ctx, clerkID)
	if err != nil {
		return 0, err
	}
	if user != nil {
		return user.ID, nil
	}

	user = &domain.User{ClerkID: clerkID, Email: email, Name: name}
	if err := uc.repo.Create(ctx, user); err != nil {
		return 0, err
	}

	uc.log.WithContext(ctx).Info("user created",
		zap.Uint("user_id", user.ID),
		zap.String("clerk_id", clerkID),
	)
	return user.ID, nil
}

// GetByClerkID returns the user for the identity subject
func (uc *UserUseCase) GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	user, err := uc.repo.FindByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewUserNotFound(clerkID)
	}
	return user, nil
}

// SetProcessorCustomerID stores the payment processor's customer reference
func (uc *UserUseCase) SetProcessorCustomerID(ctx context.Context, userID uint, customerID string) error {
	return uc.repo.SetProcessorCustomerID(ctx, userID, customerID)
}

// ListCustomers returns every user, newest first
func (uc *UserUseCase) ListCustomers(ctx context.Context) ([]*domain.User, error) {
	return uc.repo.ListCustomers(ctx)
}

// ListAddresses returns the user's addresses, default first
func (uc *UserUseCase) ListAddresses(ctx context.Context, userID uint) ([]*domain.Address, error) {
	return uc.repo.ListAddresses(ctx, userID)
}

// CreateAddress validates and persists a new address. The user's first
// address always becomes the default; a later address becomes the default
// only when asked, displacing the previous one.
func (uc *UserUseCase) CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}

	count, err := uc.repo.CountAddresses(ctx, address.UserID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		address.IsDefault = true
	} else if address.IsDefault {
		if err := uc.repo.ClearDefaultAddress(ctx, address.UserID); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.CreateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// UpdateAddress validates and persists address changes
func (uc *UserUseCase) UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if _, err := uc.repo.GetAddress(ctx, address.UserID, address.ID); err != nil {
		return nil, err
	}

	if address.IsDefault {
		if err := uc.repo.ClearDefaultAddress(ctx, address.UserID); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.UpdateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// SetDefaultAddress makes the given address the user's default
func (uc *UserUseCase) SetDefaultAddress(ctx context.Context, userID, addressID uint) (*domain.Address, error) {
	address, err := uc.repo.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ClearDefaultAddress(ctx, userID); err != nil {
		return nil, err
	}
	address.IsDefault = true
	if err := uc.repo.UpdateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes one of the user's addresses. Deleting the default
// promotes the most recent remaining address.
func (uc *UserUseCase) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	address, err := uc.repo.GetAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteAddress(ctx, userID, addressID); err != nil {
		return err
	}

	if address.IsDefault {
		remaining, err := uc.repo.ListAddresses(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			remaining[0].IsDefault = true
			return uc.repo.UpdateAddress(ctx, remaining[0])
		}
	}
	return nil
}

// ListWishlist returns the user's wishlist joined with product state
func (uc *UserUseCase) ListWishlist(ctx context.Context, userID uint) ([]*domain.WishlistEntry, error) {
	return uc.repo.ListWishlist(ctx, userID)
}

// AddToWishlist adds a product to the user's wishlist. Re-adding a listed
// product is a no-op.
func (uc *UserUseCase) AddToWishlist(ctx context.Context, userID, productID uint) error {
	exists, err := uc.repo.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFound("product", productID)
	}
	return uc.repo.AddWishlistItem(ctx, userID, productID)
}

// RemoveFromWishlist removes a product from the user's wishlist
func (uc *UserUseCase) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	return uc.repo.RemoveWishlistItem(ctx, userID, productID)
}
