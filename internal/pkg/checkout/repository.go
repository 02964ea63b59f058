package checkout

import (
	"gorm.io/gorm"

	"github.com/TobiasKrahl/Velora/app/models"
)

// Repository provides the DB operations used by the checkout service.
type Repository interface {
	FindPaymentByToken(token string) (*models.Payment, error)
	FindPaymentByProviderID(providerPaymentID string) (*models.Payment, error)
	GetInvoice(id uint) (*models.Invoice, error)
	ListOrdersByInvoice(invoiceID uint) ([]models.Order, error)
	ListSubscriptionsByOrders(orderIDs []uint) ([]models.Subscription, error)
	GetProduct(id uint) (*models.Product, error)
	SavePayment(p *models.Payment) error
	SaveOrder(o *models.Order) error
	SaveSubscription(s *models.Subscription) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a checkout repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindPaymentByToken(token string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("token = ? AND method_type = ?", token, models.PaymentMethodPaypal).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindPaymentByProviderID(providerPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_payment_id = ? AND method_type = ?", providerPaymentID, models.PaymentMethodPaypal).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetInvoice(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.Preload("Lines").Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) ListOrdersByInvoice(invoiceID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("invoice_id = ?", invoiceID).Order("id asc").Find(&orders).Error
	return orders, err
}

func (r *gormRepository) ListSubscriptionsByOrders(orderIDs []uint) ([]models.Subscription, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var subs []models.Subscription
	err := r.db.Where("order_id IN ?", orderIDs).Find(&subs).Error
	return subs, err
}

func (r *gormRepository) GetProduct(id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) SaveOrder(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *gormRepository) SaveSubscription(s *models.Subscription) error {
	return r.db.Save(s).Error
}
