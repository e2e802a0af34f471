package services

import (
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The payment and extraction collaborators are
// constructed by the caller (they carry their own HTTP configuration) and
// injected here so services stay testable with mocks.
func NewServiceContainer(repos portsrepo.RepositoryProvider, payment portssvc.PaymentSvc, extractor portssvc.ReceiptExtractorSvc) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{
		Payment:   payment,
		Extractor: extractor,
	}

	container.Cart = NewCartService(repos.CartRepo)
	container.Order = NewOrderService(repos.OrderRepo, repos.CartRepo, payment)
	container.Expense = NewExpenseService(repos.ExpenseRepo, extractor)

	return container
}
