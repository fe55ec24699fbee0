package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/partner"
	"github.com/sklad/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService manages loyalty program members
type CustomerService struct {
	scope  txn.TransactionScope
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(scope txn.TransactionScope, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{scope: scope, logger: logger}
}

// CreateCustomer enrols a member
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewLoyaltyCustomer(req.FirstName, req.LastName, req.Email, req.Phone, req.CardCode)
	if err != nil {
		return nil, err
	}
	if req.DiscountPercent != nil {
		if err := customer.SetDiscount(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}
	err = s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		return repos.CustomerRepo().Create(ctx, customer)
	})
	if err != nil {
		return nil, s.fail("Failed to create loyalty customer", err)
	}
	s.logger.Info("Loyalty customer created", zap.String("customer_id", customer.ID.String()))
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// SetDiscount changes a member's discount percent (0-30)
func (s *CustomerService) SetDiscount(ctx context.Context, id uuid.UUID, req SetDiscountRequest) (*CustomerResponse, error) {
	var customer *partner.LoyaltyCustomer
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		customer, err = repos.CustomerRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := customer.SetDiscount(req.DiscountPercent); err != nil {
			return err
		}
		return repos.CustomerRepo().Save(ctx, customer)
	})
	if err != nil {
		return nil, s.fail("Failed to set loyalty discount", err, zap.String("customer_id", id.String()))
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetCustomer returns a member by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	return s.find(ctx, func(repo partner.LoyaltyCustomerRepository) (*partner.LoyaltyCustomer, error) {
		return repo.FindByID(ctx, id)
	})
}

// FindByCardCode returns the member holding a loyalty card
func (s *CustomerService) FindByCardCode(ctx context.Context, code string) (*CustomerResponse, error) {
	return s.find(ctx, func(repo partner.LoyaltyCustomerRepository) (*partner.LoyaltyCustomer, error) {
		return repo.FindByCardCode(ctx, strings.TrimSpace(code))
	})
}

// ListCustomers lists members matching search
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]CustomerResponse, error) {
	var customers []partner.LoyaltyCustomer
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		customers, err = repos.CustomerRepo().FindAll(ctx, search)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out, nil
}

func (s *CustomerService) find(ctx context.Context, load func(partner.LoyaltyCustomerRepository) (*partner.LoyaltyCustomer, error)) (*CustomerResponse, error) {
	var customer *partner.LoyaltyCustomer
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		customer, err = load(repos.CustomerRepo())
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
